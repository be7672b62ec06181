package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nurpe/negotiations-service/internal/model"
	"github.com/nurpe/negotiations-service/internal/visibility"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `
	request_key,
	summary,
	status,
	requester_id,
	requester_name,
	requester_email,
	organization_id,
	department_id,
	created_at,
	updated_at
`

// Upsert mirrors a tracker issue into the local requests table.
func (r *RequestRepository) Upsert(ctx context.Context, request model.Request) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO requests (
			request_key,
			summary,
			status,
			requester_id,
			requester_name,
			requester_email,
			organization_id,
			department_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (request_key) DO UPDATE SET
			summary = EXCLUDED.summary,
			status = EXCLUDED.status,
			requester_id = EXCLUDED.requester_id,
			requester_name = EXCLUDED.requester_name,
			requester_email = EXCLUDED.requester_email,
			organization_id = EXCLUDED.organization_id,
			department_id = EXCLUDED.department_id,
			updated_at = NOW()
	`,
		request.RequestKey,
		request.Summary,
		request.Status,
		request.RequesterID,
		request.RequesterName,
		request.RequesterEmail,
		request.OrganizationID,
		request.DepartmentID,
	).Error
}

func (r *RequestRepository) GetByKey(ctx context.Context, requestKey string) (*model.Request, error) {
	var request model.Request
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+requestColumns+` FROM requests WHERE request_key = ? LIMIT 1
	`, requestKey).Scan(&request).Error
	if err != nil {
		return nil, err
	}
	if request.RequestKey == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &request, nil
}

func (r *RequestRepository) UpdateStatus(ctx context.Context, requestKey, status string) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE requests SET status = ?, updated_at = NOW() WHERE request_key = ?
	`, status, requestKey).Error
}

// Search lists requests admitted by the scope, optionally narrowed by status
// and a summary substring.
func (r *RequestRepository) Search(ctx context.Context, scope visibility.Scope, status, query string) ([]model.Request, error) {
	sql := `SELECT ` + requestColumns + ` FROM requests`
	var conds []string
	var args []interface{}

	if cond, condArgs := scope.RequestFilter(); cond != "" {
		conds = append(conds, cond)
		args = append(args, condArgs...)
	}
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}
	if query != "" {
		conds = append(conds, "(summary ILIKE ? OR request_key ILIKE ?)")
		args = append(args, "%"+query+"%", "%"+query+"%")
	}

	if len(conds) > 0 {
		sql += " WHERE " + conds[0]
		for _, cond := range conds[1:] {
			sql += " AND " + cond
		}
	}
	sql += " ORDER BY updated_at DESC"

	var requests []model.Request
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
