package sheetsvc

import (
	"bytes"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core/supervisor"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	SheetName   = "Supervisors"
)

var (
	// errors
	ErrNotSpreadsheet = errors.New("file is not an Excel (.xlsx) spreadsheet")
	ErrUnreadable     = errors.New("spreadsheet could not be read")
	ErrNoSheet        = errors.New("spreadsheet has no sheet")
)

// Sniff checks that data looks like an xlsx workbook.
// xlsx files are zip archives; generic zip content is accepted and left to the parser.
func Sniff(data []byte) error {
	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		if mt.Is(ContentType) || mt.Is("application/zip") {
			return nil
		}
	}
	return ErrNotSpreadsheet
}

// ReadRows parses the first sheet of an xlsx workbook.
// The first row holds the headers and must carry an EMAIL column.
// Every following row becomes a RawRow keyed by header; blank rows are kept as nil
// so that index i is always spreadsheet line i+2.
func ReadRows(r io.Reader) ([]supervisor.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading spreadsheet")
	}
	if err = Sniff(data); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(ErrUnreadable, err.Error())
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(ErrUnreadable, err.Error())
	}
	if len(rows) == 0 {
		return nil, supervisor.ErrNoEmailColumn
	}

	headers := rows[0]
	if err = supervisor.CheckHeaders(headers); err != nil {
		return nil, err
	}
	out := make([]supervisor.RawRow, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		if isBlank(cells) {
			out = append(out, nil)
			continue
		}
		raw := make(supervisor.RawRow, len(headers))
		for i, h := range headers {
			var val string
			if i < len(cells) {
				val = cells[i]
			}
			// repeated headers: first non-empty value wins
			if prev, ok := raw[h]; ok && prev != "" {
				continue
			}
			raw[h] = val
		}
		out = append(out, raw)
	}
	return out, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteSheet builds a single-sheet workbook with a header row followed by rows.
func WriteSheet(headers []string, rows [][]string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}
	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return nil, errors.Wrap(err, "writing headers")
	}
	for i, row := range rows {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, supervisor.RowNumber(i))
		if err != nil {
			return nil, errors.Wrap(err, "computing cell name")
		}
		if err = f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "writing row %d", supervisor.RowNumber(i))
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf, nil
}

// Template returns an empty workbook holding only the supervisor headers.
func Template() (*bytes.Buffer, error) {
	return WriteSheet(supervisor.Headers(), nil)
}

// Export returns a workbook listing sups, one per row, in upload layout.
func Export(sups []supervisor.Supervisor) (*bytes.Buffer, error) {
	rows := make([][]string, 0, len(sups))
	for _, s := range sups {
		rows = append(rows, s.Values())
	}
	return WriteSheet(supervisor.Headers(), rows)
}
