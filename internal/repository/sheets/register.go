package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
)

const (
	registerWriteRange  = "Challans!A:I"
	registerKeyRange    = "Challans!A:A"
	registerHeaderRange = "Challans!A1:I1"
)

var registerHeader = []any{
	"DC Number", "Date", "Client", "Location", "Project", "Prepared By", "PO Number", "Items", "Returnable Items",
}

// ChallanRegister mirrors issued challans into a spreadsheet, one row per DC number.
type ChallanRegister struct {
	repo   Repository
	logger *zap.Logger

	mu sync.Mutex
}

// NewChallanRegister wraps a sheet repository.
func NewChallanRegister(repo Repository, logger *zap.Logger) *ChallanRegister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChallanRegister{repo: repo, logger: logger}
}

// Append writes challan to the register unless its DC number is already
// listed. An empty sheet gets a header row first.
func (r *ChallanRegister) Append(ctx context.Context, challan models.Challan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.repo.ReadRange(ctx, registerKeyRange)
	if err != nil {
		return fmt.Errorf("load register keys: %w", err)
	}
	if len(rows) == 0 {
		if err := r.repo.UpdateRow(ctx, registerHeaderRange, registerHeader); err != nil {
			return fmt.Errorf("write register header: %w", err)
		}
	}
	for _, row := range rows {
		if len(row) > 0 && strings.EqualFold(fmt.Sprint(row[0]), challan.DCNumber) {
			r.logger.Debug("challan already registered", zap.String("dc_number", challan.DCNumber))
			return nil
		}
	}

	values := []any{
		challan.DCNumber,
		challan.Date,
		challan.Client,
		challan.Location,
		challan.ProjectName,
		challan.PreparedBy,
		challan.PONumber,
		len(challan.Items),
		challan.ReturnableCount(),
	}
	if err := r.repo.AppendRow(ctx, registerWriteRange, values); err != nil {
		return fmt.Errorf("register challan %s: %w", challan.DCNumber, err)
	}
	r.logger.Info("challan registered", zap.String("dc_number", challan.DCNumber))
	return nil
}
