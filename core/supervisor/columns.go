package supervisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoEmailColumn rejects a header row without an EMAIL column. Blank EMAIL cells stay allowed.
var ErrNoEmailColumn = errors.New("spreadsheet has no EMAIL column")

// Column is a canonical spreadsheet column name.
type Column string

const (
	ColNumber         Column = "SUPERVISOR_NUMBER"
	ColTitle          Column = "SUPERVISOR_TITLE"
	ColInitials       Column = "SUPERVISOR_INITIALS"
	ColFirstName      Column = "SUPERVISOR_FIRST_NAME"
	ColSurname        Column = "SUPERVISOR_SURNAME"
	ColDesignation    Column = "SUPERVISOR_DESIGNATION"
	ColOfficePhone    Column = "SUPERVISOR_OFFICE_PHONE"
	ColMobilePhone    Column = "SUPERVISOR_MOBILE_PHONE"
	ColEmail          Column = "EMAIL"
	ColSection        Column = "SUPERVISOR_SECTION"
	ColDivision       Column = "SUPERVISOR_DIVISION"
	ColCostCentreCode Column = "SUPERVISOR_COST_CENTRE_CODE"
	ColGroupName      Column = "SUPERVISOR_GROUP_NAME"
	ColSalaryGrade    Column = "SUPERVISOR_SALARY_GRADE"
)

// Columns lists the canonical columns in spreadsheet order.
var Columns = []Column{
	ColNumber,
	ColTitle,
	ColInitials,
	ColFirstName,
	ColSurname,
	ColDesignation,
	ColOfficePhone,
	ColMobilePhone,
	ColEmail,
	ColSection,
	ColDivision,
	ColCostCentreCode,
	ColGroupName,
	ColSalaryGrade,
}

var (
	// columnLookup maps an upper-cased header to its canonical Column.
	columnLookup = make(map[string]Column, len(Columns))

	// columnFields binds each Column to the Profile field it fills.
	columnFields = map[Column]func(p *Profile) *string{
		ColNumber:         func(p *Profile) *string { return &p.Number },
		ColTitle:          func(p *Profile) *string { return &p.Title },
		ColInitials:       func(p *Profile) *string { return &p.Initials },
		ColFirstName:      func(p *Profile) *string { return &p.FirstName },
		ColSurname:        func(p *Profile) *string { return &p.Surname },
		ColDesignation:    func(p *Profile) *string { return &p.Designation },
		ColOfficePhone:    func(p *Profile) *string { return &p.OfficePhone },
		ColMobilePhone:    func(p *Profile) *string { return &p.MobilePhone },
		ColEmail:          func(p *Profile) *string { return &p.Email },
		ColSection:        func(p *Profile) *string { return &p.Section },
		ColDivision:       func(p *Profile) *string { return &p.Division },
		ColCostCentreCode: func(p *Profile) *string { return &p.CostCentreCode },
		ColGroupName:      func(p *Profile) *string { return &p.GroupName },
		ColSalaryGrade:    func(p *Profile) *string { return &p.SalaryGrade },
	}
)

func init() {
	for _, col := range Columns {
		if _, ok := columnFields[col]; !ok {
			panic(fmt.Sprintf("supervisor: column %s has no field binding", col))
		}
		columnLookup[string(col)] = col
	}
}

// LookupColumn resolves a header of any casing to its canonical Column.
func LookupColumn(header string) (Column, bool) {
	col, ok := columnLookup[canonicalHeader(header)]
	return col, ok
}

// CheckHeaders verifies that a spreadsheet header row carries an EMAIL column.
func CheckHeaders(headers []string) error {
	for _, h := range headers {
		if col, ok := LookupColumn(h); ok && col == ColEmail {
			return nil
		}
	}
	return ErrNoEmailColumn
}

// RequiredOnUpload reports whether a spreadsheet row must carry a value for col.
// EMAIL is optional and validated separately.
func (col Column) RequiredOnUpload() bool {
	return col != ColEmail
}

func (col Column) String() string { return string(col) }

// Value returns the Profile value bound to col.
func (p Profile) Value(col Column) string {
	if fld, ok := columnFields[col]; ok {
		return *fld(&p)
	}
	return ""
}

// Values returns the Profile values in Columns order.
func (p Profile) Values() []string {
	vals := make([]string, 0, len(Columns))
	for _, col := range Columns {
		vals = append(vals, p.Value(col))
	}
	return vals
}

// Headers returns the canonical header row.
func Headers() []string {
	headers := make([]string, 0, len(Columns))
	for _, col := range Columns {
		headers = append(headers, string(col))
	}
	return headers
}

// RawRow is one spreadsheet data row as parsed: header (any casing) -> cell.
type RawRow map[string]string

// IsBlank reports whether every cell of r is blank.
func (r RawRow) IsBlank() bool {
	for _, val := range r {
		if strings.TrimSpace(val) != "" {
			return false
		}
	}
	return true
}

// Row is a normalized spreadsheet row: upper-cased header -> trimmed cell.
type Row map[string]string

// Get returns the value of the canonical column col ("" when absent).
func (r Row) Get(col Column) string {
	return r[string(col)]
}

// Normalize upper-cases and trims headers, and trims values.
// Blank headers are dropped. When several headers collapse to the same key,
// the first non-empty value in sorted header order wins. Normalize never fails.
func Normalize(raw RawRow) Row {
	headers := make([]string, 0, len(raw))
	for header := range raw {
		headers = append(headers, header)
	}
	sort.Strings(headers)

	row := make(Row, len(raw))
	for _, header := range headers {
		val := raw[header]
		key := canonicalHeader(header)
		if key == "" {
			continue
		}
		val = strings.TrimSpace(val)
		if prev, ok := row[key]; ok && prev != "" {
			continue
		}
		row[key] = val
	}
	return row
}

func canonicalHeader(h string) string {
	return strings.ToUpper(strings.TrimSpace(h))
}
