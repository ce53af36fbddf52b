package leads

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const defaultSheetRange = "Sheet1!A:I"

// SheetsRepository appends leads as rows of a Google Sheet, the store the
// academy staff actually work from.
type SheetsRepository struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetRange    string
}

// NewSheetsRepository builds a repository writing to the given spreadsheet
// using a service-account credentials file.
func NewSheetsRepository(ctx context.Context, spreadsheetID, credentialsPath string) (*SheetsRepository, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("leads: spreadsheet id required")
	}
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("leads: sheets client: %w", err)
	}
	return &SheetsRepository{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetRange:    defaultSheetRange,
	}, nil
}

var _ Repository = (*SheetsRepository)(nil)

// Append adds one row at the bottom of the sheet.
func (r *SheetsRepository) Append(ctx context.Context, rec *LeadRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	values := &sheets.ValueRange{Values: [][]any{rec.Row()}}
	_, err := r.svc.Spreadsheets.Values.
		Append(r.spreadsheetID, r.sheetRange, values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("leads: sheets append: %w", err)
	}
	return nil
}
