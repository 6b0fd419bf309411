package dummydb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/iypan/shiksha/core/card"
	"github.com/iypan/shiksha/core/giveaway"
	"github.com/iypan/shiksha/core/institute"
	"github.com/iypan/shiksha/core/user"
)

type (
	DB struct {
		user      *userTable
		giveaway  *giveawayTable
		card      *cardTable
		institute *instituteTable
	}

	userTable struct {
		sync.RWMutex
		table map[int]*user.User
	}

	giveawayTable struct {
		sync.RWMutex
		table []giveaway.Entry
	}

	cardTable struct {
		sync.RWMutex
		payments    []card.Payment
		cards       map[uuid.UUID]*card.GeneratedCard
		activations []card.Activation
		eliteCards  []card.EliteCard
	}

	instituteTable struct {
		sync.RWMutex
		centers     map[int]*institute.Center
		states      map[int]*institute.State
		batches     map[int]*institute.Batch
		courses     map[int]*institute.Course
		teachers    map[int]*institute.Teacher
		students    map[int]*institute.Student
		enrollments []institute.Enrollment
		managers    map[int]*institute.Manager
		txns        []institute.Transaction
		coords      []institute.Coordinator
		partners    []institute.FinancialPartner
		notes       []institute.Note
		schedule    []institute.ScheduleSlot
		leads       map[int]*institute.Lead
		influencers map[string]*institute.Influencer // by email
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:     &userTable{table: make(map[int]*user.User)},
		giveaway: &giveawayTable{},
		card:     &cardTable{cards: make(map[uuid.UUID]*card.GeneratedCard)},
		institute: &instituteTable{
			centers:     make(map[int]*institute.Center),
			states:      make(map[int]*institute.State),
			batches:     make(map[int]*institute.Batch),
			courses:     make(map[int]*institute.Course),
			teachers:    make(map[int]*institute.Teacher),
			students:    make(map[int]*institute.Student),
			managers:    make(map[int]*institute.Manager),
			leads:       make(map[int]*institute.Lead),
			influencers: make(map[string]*institute.Influencer),
		},
	}
	return db, nil
}
