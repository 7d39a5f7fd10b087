// Package importer loads question content from xlsx workbooks into the
// tabular store, keeping the spreadsheet authoring workflow content
// writers already use.
package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sansudrill/drill-backend/internal/sheet"
)

// ReadQuestions reads the header and data rows of a workbook sheet.
// sheetName "" means the first sheet. The header must contain every
// required Questions column; data rows are taken as-is (eligibility is
// the serving path's concern, not the importer's).
func ReadQuestions(path, sheetName string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %q is empty", sheetName)
	}

	header := rows[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if _, err := sheet.HeaderIndex(header, sheet.QuestionColumns...); err != nil {
		return nil, nil, fmt.Errorf("sheet %q: %v", sheetName, err)
	}

	// Pad short rows so positional cells stay aligned with the header.
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
		data = append(data, row)
	}
	return header, data, nil
}

// Load replaces the Questions table with the workbook contents and
// returns the number of data rows written.
func Load(ctx context.Context, store sheet.Store, path, sheetName string) (int, error) {
	header, rows, err := ReadQuestions(path, sheetName)
	if err != nil {
		return 0, err
	}
	if err := store.Reset(ctx, sheet.TableQuestions); err != nil {
		return 0, err
	}
	if err := store.WriteHeader(ctx, sheet.TableQuestions, header); err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := store.Append(ctx, sheet.TableQuestions, row); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}
