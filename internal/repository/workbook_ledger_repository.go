package repository

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/datecheck-bot/pkg/config"
)

// WorkbookLedgerRepository reads booked dates from column A of a local .xlsx
// file. The file is reopened on every read so edits are picked up immediately.
type WorkbookLedgerRepository struct {
	path       string
	sheetName  string
	headerRows int
}

// NewWorkbookLedgerRepository reads sheetName, or the first sheet when empty.
func NewWorkbookLedgerRepository(path, sheetName string, headerRows int) *WorkbookLedgerRepository {
	return &WorkbookLedgerRepository{path: path, sheetName: sheetName, headerRows: headerRows}
}

func (r *WorkbookLedgerRepository) Name() string { return config.LedgerWorkbook }

func (r *WorkbookLedgerRepository) BookedDates(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheetName := r.sheetName
	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", r.path)
		}
		sheetName = sheets[0]
	}

	cols, err := f.GetCols(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	if len(cols) == 0 {
		return []string{}, nil
	}
	return skipHeader(cols[0], r.headerRows), nil
}

func (r *WorkbookLedgerRepository) Close() error { return nil }
