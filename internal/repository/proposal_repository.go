package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nurpe/negotiations-service/internal/model"
)

type ProposalRepository struct {
	db *gorm.DB
}

func NewProposalRepository(db *gorm.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// Append inserts a proposal with the next sequence number for its request key.
// The read-max-then-insert runs in one transaction; the unique index on
// (request_key, seq_no) backstops concurrent writers that slip past the
// service-level key lock.
func (r *ProposalRepository) Append(ctx context.Context, proposal model.Proposal) (*model.Proposal, error) {
	var saved model.Proposal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lastSeq int
		if err := tx.Raw(`
			SELECT COALESCE(MAX(seq_no), 0) FROM proposals WHERE request_key = ?
		`, proposal.RequestKey).Scan(&lastSeq).Error; err != nil {
			return err
		}

		return tx.Raw(`
			INSERT INTO proposals (
				request_key,
				seq_no,
				unit_price,
				quantity,
				total,
				note,
				is_final,
				final_submitted
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING
				id,
				request_key,
				seq_no,
				unit_price,
				quantity,
				total,
				note,
				is_final,
				final_submitted,
				created_at
		`,
			proposal.RequestKey,
			lastSeq+1,
			proposal.UnitPrice,
			proposal.Quantity,
			proposal.Total,
			proposal.Note,
			proposal.IsFinal,
			proposal.FinalSubmitted,
		).Scan(&saved).Error
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// ListByRequest returns the full ledger for a request key, ascending by
// sequence number.
func (r *ProposalRepository) ListByRequest(ctx context.Context, requestKey string) ([]model.Proposal, error) {
	var proposals []model.Proposal
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			request_key,
			seq_no,
			unit_price,
			quantity,
			total,
			note,
			is_final,
			final_submitted,
			created_at
		FROM proposals
		WHERE request_key = ?
		ORDER BY seq_no ASC
	`, requestKey).Scan(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}
