package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/negotiations-service/internal/model"
	"github.com/nurpe/negotiations-service/internal/visibility"
)

// SnapshotLister is the read surface over completed-contract snapshots.
type SnapshotLister interface {
	GetByRequestKey(ctx context.Context, requestKey string) (*model.NegotiationSnapshot, error)
	List(ctx context.Context, scope visibility.Scope) ([]model.NegotiationSnapshot, error)
}

// RegisterGenerator renders the completed-contracts register to a document.
type RegisterGenerator interface {
	Generate(register model.ContractRegister) ([]byte, error)
}

type ContractService struct {
	snapshots SnapshotLister
	excel     RegisterGenerator
	pdf       RegisterGenerator
	now       func() time.Time
}

func NewContractService(snapshots SnapshotLister, excel, pdf RegisterGenerator) *ContractService {
	return &ContractService{
		snapshots: snapshots,
		excel:     excel,
		pdf:       pdf,
		now:       time.Now,
	}
}

func (s *ContractService) List(ctx context.Context, principal model.Principal) ([]model.NegotiationSnapshot, error) {
	snapshots, err := s.snapshots.List(ctx, visibility.ScopeFor(principal))
	if err != nil {
		return nil, fmt.Errorf("%w: list snapshots: %v", ErrPersistence, err)
	}
	return snapshots, nil
}

func (s *ContractService) Get(ctx context.Context, principal model.Principal, requestKey string) (*model.NegotiationSnapshot, error) {
	snapshot, err := s.snapshots.GetByRequestKey(ctx, requestKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load snapshot: %v", ErrPersistence, err)
	}
	if !snapshotVisible(visibility.ScopeFor(principal), *snapshot) {
		return nil, ErrPermissionDenied
	}
	return snapshot, nil
}

type ExportFormat string

const (
	ExportFormatExcel ExportFormat = "xlsx"
	ExportFormatPDF   ExportFormat = "pdf"
)

type ExportResult struct {
	FileName string
	Content  []byte
}

// Export renders the register of snapshots the principal may see. Employees
// have no register view.
func (s *ContractService) Export(ctx context.Context, principal model.Principal, format ExportFormat) (*ExportResult, error) {
	if principal.IsEmployee() {
		return nil, ErrPermissionDenied
	}

	snapshots, err := s.snapshots.List(ctx, visibility.ScopeFor(principal))
	if err != nil {
		return nil, fmt.Errorf("%w: list snapshots: %v", ErrPersistence, err)
	}

	total := decimal.Zero
	for _, snapshot := range snapshots {
		total = total.Add(snapshot.Profit)
	}
	register := model.ContractRegister{
		GeneratedAt: s.now(),
		Snapshots:   snapshots,
		TotalProfit: total,
	}

	var generator RegisterGenerator
	switch format {
	case ExportFormatExcel:
		generator = s.excel
	case ExportFormatPDF:
		generator = s.pdf
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", ErrInvalidInput, format)
	}

	content, err := generator.Generate(register)
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("contracts-%s.%s", register.GeneratedAt.Format("20060102-150405"), format)
	return &ExportResult{FileName: fileName, Content: content}, nil
}

func snapshotVisible(scope visibility.Scope, snapshot model.NegotiationSnapshot) bool {
	return scope.MatchesRequest(model.Request{
		RequestKey:     snapshot.RequestKey,
		RequesterEmail: snapshot.RequesterEmail,
		OrganizationID: snapshot.OrganizationID,
		DepartmentID:   snapshot.DepartmentID,
	})
}
