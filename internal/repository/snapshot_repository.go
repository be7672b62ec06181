package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nurpe/negotiations-service/internal/model"
	"github.com/nurpe/negotiations-service/internal/visibility"
)

type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Upsert persists a snapshot keyed on request_key. Re-running completion with
// corrected fields overwrites the existing row instead of creating a second
// one.
func (r *SnapshotRepository) Upsert(ctx context.Context, snapshot model.NegotiationSnapshot) (*model.NegotiationSnapshot, error) {
	var saved model.NegotiationSnapshot
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO negotiation_snapshots (
			request_key,
			vendor,
			product,
			requester_name,
			requester_email,
			organization_id,
			department_id,
			current_count,
			new_count,
			unit,
			profit,
			due_date,
			renewal_date,
			duration_months,
			comment,
			status,
			completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (request_key) DO UPDATE SET
			vendor = EXCLUDED.vendor,
			product = EXCLUDED.product,
			requester_name = EXCLUDED.requester_name,
			requester_email = EXCLUDED.requester_email,
			organization_id = EXCLUDED.organization_id,
			department_id = EXCLUDED.department_id,
			current_count = EXCLUDED.current_count,
			new_count = EXCLUDED.new_count,
			unit = EXCLUDED.unit,
			profit = EXCLUDED.profit,
			due_date = EXCLUDED.due_date,
			renewal_date = EXCLUDED.renewal_date,
			duration_months = EXCLUDED.duration_months,
			comment = EXCLUDED.comment,
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at
		RETURNING
			id,
			request_key,
			vendor,
			product,
			requester_name,
			requester_email,
			organization_id,
			department_id,
			current_count,
			new_count,
			unit,
			profit,
			due_date,
			renewal_date,
			duration_months,
			comment,
			status,
			completed_at,
			created_at
	`,
		snapshot.RequestKey,
		snapshot.Vendor,
		snapshot.Product,
		snapshot.RequesterName,
		snapshot.RequesterEmail,
		snapshot.OrganizationID,
		snapshot.DepartmentID,
		snapshot.CurrentCount,
		snapshot.NewCount,
		snapshot.Unit,
		snapshot.Profit,
		snapshot.DueDate,
		snapshot.RenewalDate,
		snapshot.DurationMonths,
		snapshot.Comment,
		snapshot.Status,
		snapshot.CompletedAt,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *SnapshotRepository) GetByRequestKey(ctx context.Context, requestKey string) (*model.NegotiationSnapshot, error) {
	var snapshot model.NegotiationSnapshot
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			request_key,
			vendor,
			product,
			requester_name,
			requester_email,
			organization_id,
			department_id,
			current_count,
			new_count,
			unit,
			profit,
			due_date,
			renewal_date,
			duration_months,
			comment,
			status,
			completed_at,
			created_at
		FROM negotiation_snapshots
		WHERE request_key = ?
		LIMIT 1
	`, requestKey).Scan(&snapshot).Error
	if err != nil {
		return nil, err
	}
	if snapshot.RequestKey == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &snapshot, nil
}

// List returns snapshots visible to the given scope, newest first.
func (r *SnapshotRepository) List(ctx context.Context, scope visibility.Scope) ([]model.NegotiationSnapshot, error) {
	query := `
		SELECT
			id,
			request_key,
			vendor,
			product,
			requester_name,
			requester_email,
			organization_id,
			department_id,
			current_count,
			new_count,
			unit,
			profit,
			due_date,
			renewal_date,
			duration_months,
			comment,
			status,
			completed_at,
			created_at
		FROM negotiation_snapshots
	`
	var args []interface{}
	if cond, condArgs := snapshotFilter(scope); cond != "" {
		query += " WHERE " + cond
		args = condArgs
	}
	query += " ORDER BY completed_at DESC"

	var snapshots []model.NegotiationSnapshot
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

func snapshotFilter(scope visibility.Scope) (string, []interface{}) {
	if scope.All {
		return "", nil
	}
	var conds []string
	var args []interface{}
	if scope.OrganizationID != nil {
		conds = append(conds, "organization_id = ?")
		args = append(args, *scope.OrganizationID)
	}
	if scope.DepartmentID != nil {
		conds = append(conds, "department_id = ?")
		args = append(args, *scope.DepartmentID)
	}
	if scope.SelfOnly {
		conds = append(conds, "LOWER(requester_email) = LOWER(?)")
		args = append(args, scope.Email)
	}
	if len(conds) == 0 {
		return "", nil
	}
	cond := conds[0]
	for _, c := range conds[1:] {
		cond += " AND " + c
	}
	return cond, args
}
