package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/challans/internal/config"
)

const valueInputOption = "USER_ENTERED"

var errEmptyRange = errors.New("sheet range must not be empty")

// Repository is the cell level access the register needs from a spreadsheet.
type Repository interface {
	AppendRow(ctx context.Context, sheetRange string, values []any) error
	UpdateRow(ctx context.Context, sheetRange string, values []any) error
	ReadRange(ctx context.Context, sheetRange string) ([][]any, error)
}

// GoogleSheetRepository implements Repository using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
// Extra client options are applied after the credentials file.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendRow adds values as a new row after the last row of sheetRange.
func (r *GoogleSheetRepository) AppendRow(ctx context.Context, sheetRange string, values []any) error {
	if sheetRange == "" {
		return errEmptyRange
	}

	payload := &sheetsapi.ValueRange{Values: [][]any{values}}
	_, err := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// UpdateRow overwrites the cells of sheetRange with values.
func (r *GoogleSheetRepository) UpdateRow(ctx context.Context, sheetRange string, values []any) error {
	if sheetRange == "" {
		return errEmptyRange
	}

	payload := &sheetsapi.ValueRange{Range: sheetRange, Values: [][]any{values}}
	_, err := r.service.Spreadsheets.Values.Update(r.spreadsheetID, sheetRange, payload).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update range %s: %w", sheetRange, err)
	}
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]any, error) {
	if sheetRange == "" {
		return nil, errEmptyRange
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}
