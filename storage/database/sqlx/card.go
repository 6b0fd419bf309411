package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iypan/shiksha/core/card"
)

type cardRepository struct {
	db *sqlx.DB
}

var _ card.Repository = (*cardRepository)(nil) // interface compliance check

func NewCardRepository(db *sqlx.DB) *cardRepository {
	return &cardRepository{db: db}
}

func (repo cardRepository) CreatePayment(ctx context.Context, pmt card.Payment) (card.Payment, error) {
	const q = `
		INSERT INTO payment (id, payment_id, order_id, bank_rrn, method, upi_id, email, contact, amount,
			full_name, name_on_pass, city, pin_code, card_name, status, created_at)
		VALUES (:id, :payment_id, :order_id, :bank_rrn, :method, :upi_id, :email, :contact, :amount,
			:full_name, :name_on_pass, :city, :pin_code, :card_name, :status, :created_at)`

	if _, err := repo.db.NamedExecContext(ctx, q, pmt); err != nil {
		return card.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return pmt, nil
}

func (repo cardRepository) QueryAllPayments(ctx context.Context) ([]card.Payment, error) {
	const q = `SELECT * FROM payment ORDER BY created_at DESC`

	var payments []card.Payment
	if err := repo.db.SelectContext(ctx, &payments, q); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	return payments, nil
}

func (repo cardRepository) CreateGeneratedCard(ctx context.Context, gc card.GeneratedCard) (card.GeneratedCard, error) {
	const q = `
		INSERT INTO generated_card (id, payment_id, name, email, phone, card_name, status, card_url, created_at, updated_at)
		VALUES (:id, :payment_id, :name, :email, :phone, :card_name, :status, :card_url, :created_at, :updated_at)`

	if _, err := repo.db.NamedExecContext(ctx, q, gc); err != nil {
		return card.GeneratedCard{}, errors.Wrap(err, "inserting generated card")
	}
	return gc, nil
}

func (repo cardRepository) GetGeneratedCardByID(ctx context.Context, id uuid.UUID) (card.GeneratedCard, error) {
	const q = `SELECT * FROM generated_card WHERE id = $1`

	var gc card.GeneratedCard
	if err := repo.db.GetContext(ctx, &gc, q, id); err != nil {
		if err == sql.ErrNoRows {
			return card.GeneratedCard{}, card.ErrNotFound
		}
		return card.GeneratedCard{}, errors.Wrap(err, "getting generated card")
	}
	return gc, nil
}

func (repo cardRepository) QueryPendingCards(ctx context.Context) ([]card.GeneratedCard, error) {
	const q = `SELECT * FROM generated_card WHERE status = $1 ORDER BY created_at ASC`
	return repo.queryCards(ctx, q, card.CardStatusGenerated)
}

func (repo cardRepository) QueryApprovedCards(ctx context.Context) ([]card.GeneratedCard, error) {
	const q = `SELECT * FROM generated_card WHERE status = $1 ORDER BY updated_at DESC`
	return repo.queryCards(ctx, q, card.CardStatusApproved)
}

func (repo cardRepository) UpdateGeneratedCard(ctx context.Context, gc card.GeneratedCard) (card.GeneratedCard, error) {
	const q = `
		UPDATE generated_card
		SET status = :status, card_url = :card_url, updated_at = :updated_at
		WHERE id = :id`

	res, err := repo.db.NamedExecContext(ctx, q, gc)
	if err != nil {
		return card.GeneratedCard{}, errors.Wrap(err, "updating generated card")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return card.GeneratedCard{}, card.ErrNotFound
	}
	return gc, nil
}

func (repo cardRepository) CreateActivations(ctx context.Context, acts []card.Activation) (int, error) {
	const q = `
		INSERT INTO card_activation (card_number, card_name, card_type, payment_id, payment_date, email, phone, active, activated_at, created_at)
		VALUES (:card_number, :card_name, :card_type, :payment_id, :payment_date, :email, :phone, :active, :activated_at, :created_at)`

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, act := range acts {
		if _, err := tx.NamedExecContext(ctx, q, act); err != nil {
			return 0, errors.Wrap(err, "inserting activation")
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing activations")
	}
	return len(acts), nil
}

func (repo cardRepository) QueryAllActivations(ctx context.Context) ([]card.Activation, error) {
	const q = `SELECT * FROM card_activation ORDER BY created_at DESC`

	var acts []card.Activation
	if err := repo.db.SelectContext(ctx, &acts, q); err != nil {
		return nil, errors.Wrap(err, "querying activations")
	}
	return acts, nil
}

func (repo cardRepository) CountActivations(ctx context.Context) (card.ActivationStats, error) {
	const q = `
		SELECT COUNT(*)                                   AS total,
			   COUNT(*) FILTER (WHERE active)             AS active,
			   COUNT(*) FILTER (WHERE NOT active)         AS inactive
		FROM card_activation`

	var stats card.ActivationStats
	if err := repo.db.GetContext(ctx, &stats, q); err != nil {
		return card.ActivationStats{}, errors.Wrap(err, "counting activations")
	}
	return stats, nil
}

func (repo cardRepository) QueryRecentInactiveActivations(ctx context.Context, limit int) ([]card.Activation, error) {
	const q = `SELECT * FROM card_activation WHERE NOT active ORDER BY created_at DESC LIMIT $1`

	var acts []card.Activation
	if err := repo.db.SelectContext(ctx, &acts, q, limit); err != nil {
		return nil, errors.Wrap(err, "querying inactive activations")
	}
	return acts, nil
}

func (repo cardRepository) CreateEliteCard(ctx context.Context, ec card.EliteCard) (card.EliteCard, error) {
	const q = `
		INSERT INTO elite_card (student_name, register_number, card_number, card_type, created_at)
		VALUES (:student_name, :register_number, :card_number, :card_type, :created_at)
		RETURNING id`

	stmt, err := repo.db.PrepareNamedContext(ctx, q)
	if err != nil {
		return card.EliteCard{}, errors.Wrap(err, "preparing elite card insert")
	}
	defer stmt.Close()

	if err := stmt.GetContext(ctx, &ec.ID, ec); err != nil {
		return card.EliteCard{}, errors.Wrap(err, "inserting elite card")
	}
	return ec, nil
}

func (repo cardRepository) QueryAllEliteCards(ctx context.Context) ([]card.EliteCard, error) {
	const q = `SELECT * FROM elite_card ORDER BY created_at DESC`

	var cards []card.EliteCard
	if err := repo.db.SelectContext(ctx, &cards, q); err != nil {
		return nil, errors.Wrap(err, "querying elite cards")
	}
	return cards, nil
}

func (repo cardRepository) queryCards(ctx context.Context, q string, args ...interface{}) ([]card.GeneratedCard, error) {
	var cards []card.GeneratedCard
	if err := repo.db.SelectContext(ctx, &cards, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying generated cards")
	}
	return cards, nil
}
