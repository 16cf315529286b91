package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core/supervisor"
)

// NewProfile returns a complete, valid Profile for the given business key.
func NewProfile(number, email string) supervisor.Profile {
	return supervisor.Profile{
		Number:         number,
		Title:          "Mr",
		Initials:       "J.K",
		FirstName:      "John",
		Surname:        "Doe",
		Designation:    "Engineer",
		OfficePhone:    "0112345678",
		MobilePhone:    "0771234567",
		Email:          email,
		Section:        "Network",
		Division:       "IT",
		CostCentreCode: "CC01",
		GroupName:      "Ops",
		SalaryGrade:    "A1",
	}
}

// RawRow returns the spreadsheet row of p, keyed by canonical header.
func RawRow(p supervisor.Profile) supervisor.RawRow {
	raw := make(supervisor.RawRow, len(supervisor.Columns))
	for _, col := range supervisor.Columns {
		raw[col.String()] = p.Value(col)
	}
	return raw
}

func CreateSupervisor(
	t *testing.T,
	repo supervisor.Repository,
	p supervisor.Profile,
	createdAt ...time.Time,
) supervisor.Supervisor {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	sup, err := repo.CreateSupervisor(context.Background(), supervisor.Supervisor{
		Profile:   p,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateSupervisor() failed: %v", err)
	}
	return sup
}

// Workbook builds an xlsx file whose first sheet holds headers followed by rows.
func Workbook(t *testing.T, headers []string, rows ...[]string) []byte {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		t.Fatalf("Workbook() failed: %v", err)
	}
	for i, row := range rows {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("Workbook() failed: %v", err)
		}
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("Workbook() failed: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Workbook() failed: %v", err)
	}
	return buf.Bytes()
}
