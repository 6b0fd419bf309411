package dummydb

import (
	"context"
	"strings"
	"time"

	"github.com/iypan/shiksha/core/giveaway"
)

type giveawayRepository struct {
	db *giveawayTable
}

var _ giveaway.Repository = (*giveawayRepository)(nil) // interface compliance check

func NewGiveawayRepository(db *DB) giveaway.Repository {
	return &giveawayRepository{db: db.giveaway}
}

func (repo *giveawayRepository) ListReferenceCodes(ctx context.Context) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	codes := make([]string, 0, len(repo.db.table))
	for _, e := range repo.db.table {
		codes = append(codes, e.ReferenceCode)
	}
	return codes, nil
}

func (repo *giveawayRepository) ListContactEmails(ctx context.Context) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var emails []string
	for _, e := range repo.db.table {
		if e.ContactEmail.Valid {
			emails = append(emails, strings.ToLower(e.ContactEmail.String))
		}
	}
	return emails, nil
}

func (repo *giveawayRepository) CreateEntries(ctx context.Context, entries []giveaway.Entry) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	for i := range entries {
		entries[i].ID = len(repo.db.table) + 1
		entries[i].CreatedAt = now
		repo.db.table = append(repo.db.table, entries[i])
	}
	return len(entries), nil
}

func (repo *giveawayRepository) QueryAllEntries(ctx context.Context) ([]giveaway.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	// most recent first
	entries := make([]giveaway.Entry, 0, len(repo.db.table))
	for i := len(repo.db.table) - 1; i >= 0; i-- {
		entries = append(entries, repo.db.table[i])
	}
	return entries, nil
}
