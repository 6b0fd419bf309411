package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iypan/shiksha/core/giveaway"
)

type giveawayRepository struct {
	db *sqlx.DB
}

var _ giveaway.Repository = (*giveawayRepository)(nil) // interface compliance check

func NewGiveawayRepository(db *sqlx.DB) *giveawayRepository {
	return &giveawayRepository{db: db}
}

func (repo giveawayRepository) ListReferenceCodes(ctx context.Context) ([]string, error) {
	const q = `SELECT reference_code FROM giveaway_entry`

	var codes []string
	if err := repo.db.SelectContext(ctx, &codes, q); err != nil {
		return nil, errors.Wrap(err, "listing reference codes")
	}
	return codes, nil
}

func (repo giveawayRepository) ListContactEmails(ctx context.Context) ([]string, error) {
	const q = `SELECT LOWER(contact_email) FROM giveaway_entry WHERE contact_email IS NOT NULL`

	var emails []string
	if err := repo.db.SelectContext(ctx, &emails, q); err != nil {
		return nil, errors.Wrap(err, "listing contact emails")
	}
	return emails, nil
}

func (repo giveawayRepository) CreateEntries(ctx context.Context, entries []giveaway.Entry) (int, error) {
	const q = `
		INSERT INTO giveaway_entry (reference_code, display_name, card_label, locality, contact_email, contact_phone, status, created_at)
		VALUES (:reference_code, :display_name, :card_label, :locality, :contact_email, :contact_phone, :status, :created_at)`

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for i := range entries {
		entries[i].CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, q, entries[i]); err != nil {
			return 0, errors.Wrap(err, "inserting giveaway entry")
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing giveaway entries")
	}
	return len(entries), nil
}

func (repo giveawayRepository) QueryAllEntries(ctx context.Context) ([]giveaway.Entry, error) {
	const q = `SELECT * FROM giveaway_entry ORDER BY created_at DESC, id DESC`

	var entries []giveaway.Entry
	if err := repo.db.SelectContext(ctx, &entries, q); err != nil {
		return nil, errors.Wrap(err, "querying giveaway entries")
	}
	return entries, nil
}
