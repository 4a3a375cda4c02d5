package loader

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
)

// parseTable extracts a header row and data records from raw source bytes.
// CSV and XLSX sources are supported; the format is chosen by extension.
func parseTable(path string, data []byte, charset string) ([]string, [][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return parseXLSX(data)
	}
	return parseCSV(data, charset)
}

// parseCSV reads a CSV table. Source files are not uniformly UTF-8; when a
// charset is configured the bytes are decoded through x/text before
// parsing. Malformed rows are skipped, not fatal.
func parseCSV(data []byte, charset string) ([]string, [][]string, error) {
	var r io.Reader = bytes.NewReader(data)
	if charset != "" && !strings.EqualFold(charset, "utf-8") {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "loader: unknown charset %q", charset)
		}
		r = enc.NewDecoder().Reader(r)
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, eris.Wrap(err, "loader: read CSV header")
	}

	var records [][]string
	var skipped int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		records = append(records, record)
	}
	if skipped > 0 {
		zap.L().Debug("loader: skipped malformed CSV rows", zap.Int("skipped", skipped))
	}

	return header, records, nil
}

// parseXLSX reads the first sheet of an XLSX workbook as a table.
func parseXLSX(data []byte) ([]string, [][]string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, nil, eris.Wrap(err, "loader: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.New("loader: xlsx has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil, eris.New("loader: xlsx sheet is empty")
	}

	header := rowToStrings(sheet.Rows[0])
	records := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		records = append(records, rowToStrings(row))
	}
	return header, records, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
