package repository

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/sheets/v4"

	"github.com/noah-isme/datecheck-bot/pkg/config"
)

// SheetsLedgerRepository reads the first column of a Google Sheets worksheet.
type SheetsLedgerRepository struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	headerRows    int
}

// NewSheetsLedgerRepository reads sheetName, or the first worksheet when empty.
func NewSheetsLedgerRepository(svc *sheets.Service, spreadsheetID, sheetName string, headerRows int) *SheetsLedgerRepository {
	return &SheetsLedgerRepository{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName, headerRows: headerRows}
}

func (r *SheetsLedgerRepository) Name() string { return config.LedgerSheets }

// BookedDates fetches column A using formatted values, i.e. the text shown in the sheet.
func (r *SheetsLedgerRepository) BookedDates(ctx context.Context) ([]string, error) {
	sheetName := r.sheetName
	if sheetName == "" {
		title, err := r.firstSheetTitle(ctx)
		if err != nil {
			return nil, err
		}
		sheetName = title
	}

	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, columnRange(sheetName)).
		MajorDimension("COLUMNS").
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read %s column: %w", sheetName, err)
	}
	if len(resp.Values) == 0 {
		return []string{}, nil
	}

	column := resp.Values[0]
	values := make([]string, 0, len(column))
	for _, cell := range column {
		if cell == nil {
			values = append(values, "")
			continue
		}
		values = append(values, fmt.Sprint(cell))
	}
	return skipHeader(values, r.headerRows), nil
}

func (r *SheetsLedgerRepository) Close() error { return nil }

func (r *SheetsLedgerRepository) firstSheetTitle(ctx context.Context) (string, error) {
	spreadsheet, err := r.svc.Spreadsheets.Get(r.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("load spreadsheet: %w", err)
	}
	if len(spreadsheet.Sheets) == 0 || spreadsheet.Sheets[0].Properties == nil {
		return "", fmt.Errorf("spreadsheet %s has no worksheets", r.spreadsheetID)
	}
	return spreadsheet.Sheets[0].Properties.Title, nil
}

func columnRange(sheetName string) string {
	return "'" + strings.ReplaceAll(sheetName, "'", "''") + "'!A:A"
}
