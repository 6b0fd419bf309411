package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/iypan/shiksha/core/card"
)

type cardRepository struct {
	db *cardTable
}

var _ card.Repository = (*cardRepository)(nil) // interface compliance check

func NewCardRepository(db *DB) card.Repository {
	return &cardRepository{db: db.card}
}

func (repo *cardRepository) CreatePayment(ctx context.Context, pmt card.Payment) (card.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.payments = append(repo.db.payments, pmt)
	return pmt, nil
}

func (repo *cardRepository) QueryAllPayments(ctx context.Context) ([]card.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	payments := make([]card.Payment, len(repo.db.payments))
	copy(payments, repo.db.payments)
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	return payments, nil
}

func (repo *cardRepository) CreateGeneratedCard(ctx context.Context, gc card.GeneratedCard) (card.GeneratedCard, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.cards[gc.ID] = &gc
	return gc, nil
}

func (repo *cardRepository) GetGeneratedCardByID(ctx context.Context, id uuid.UUID) (card.GeneratedCard, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if gc, ok := repo.db.cards[id]; ok {
		return *gc, nil
	}
	return card.GeneratedCard{}, card.ErrNotFound
}

func (repo *cardRepository) QueryPendingCards(ctx context.Context) ([]card.GeneratedCard, error) {
	cards := repo.queryByStatus(card.CardStatusGenerated)
	sort.Slice(cards, func(i, j int) bool { return cards[i].CreatedAt.Before(cards[j].CreatedAt) })
	return cards, nil
}

func (repo *cardRepository) QueryApprovedCards(ctx context.Context) ([]card.GeneratedCard, error) {
	cards := repo.queryByStatus(card.CardStatusApproved)
	sort.Slice(cards, func(i, j int) bool { return cards[i].UpdatedAt.After(cards[j].UpdatedAt) })
	return cards, nil
}

func (repo *cardRepository) UpdateGeneratedCard(ctx context.Context, gc card.GeneratedCard) (card.GeneratedCard, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.cards[gc.ID]; !ok {
		return card.GeneratedCard{}, card.ErrNotFound
	}
	repo.db.cards[gc.ID] = &gc
	return gc, nil
}

func (repo *cardRepository) CreateActivations(ctx context.Context, acts []card.Activation) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i := range acts {
		acts[i].ID = len(repo.db.activations) + 1
		repo.db.activations = append(repo.db.activations, acts[i])
	}
	return len(acts), nil
}

func (repo *cardRepository) QueryAllActivations(ctx context.Context) ([]card.Activation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	acts := make([]card.Activation, len(repo.db.activations))
	copy(acts, repo.db.activations)
	return acts, nil
}

func (repo *cardRepository) CountActivations(ctx context.Context) (card.ActivationStats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var stats card.ActivationStats
	for _, act := range repo.db.activations {
		stats.Total++
		if act.Active {
			stats.Active++
		} else {
			stats.Inactive++
		}
	}
	return stats, nil
}

func (repo *cardRepository) QueryRecentInactiveActivations(ctx context.Context, limit int) ([]card.Activation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var acts []card.Activation
	for i := len(repo.db.activations) - 1; i >= 0 && len(acts) < limit; i-- {
		if !repo.db.activations[i].Active {
			acts = append(acts, repo.db.activations[i])
		}
	}
	return acts, nil
}

func (repo *cardRepository) CreateEliteCard(ctx context.Context, ec card.EliteCard) (card.EliteCard, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ec.ID = len(repo.db.eliteCards) + 1
	repo.db.eliteCards = append(repo.db.eliteCards, ec)
	return ec, nil
}

func (repo *cardRepository) QueryAllEliteCards(ctx context.Context) ([]card.EliteCard, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	cards := make([]card.EliteCard, 0, len(repo.db.eliteCards))
	for i := len(repo.db.eliteCards) - 1; i >= 0; i-- {
		cards = append(cards, repo.db.eliteCards[i])
	}
	return cards, nil
}

func (repo *cardRepository) queryByStatus(status string) []card.GeneratedCard {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var cards []card.GeneratedCard
	for _, gc := range repo.db.cards {
		if gc.Status == status {
			cards = append(cards, *gc)
		}
	}
	return cards
}
