package supervisor

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core"
)

// Upload failure reasons
const (
	ReasonInvalidEmail = "invalid email format"
	ReasonEmailInUse   = "email already in use by another employee"

	reasonMissingFields = "missing required fields: "
	reasonDatabase      = "database error: "
)

// UploadMessage is the message returned with every upload summary.
const UploadMessage = "Supervisors upload processed"

// rowOffset turns a 0-based data row index into the spreadsheet line number (header is line 1).
const rowOffset = 2

// RowNumber returns the spreadsheet line number of the data row at index i.
func RowNumber(i int) int { return i + rowOffset }

type FailedRow struct {
	Row     int    `json:"row"`
	Reason  string `json:"reason"`
	RowData Row    `json:"rowData"`
}

// UploadResult accumulates the outcome of every row of one upload.
type UploadResult struct {
	Succeeded []int
	Failed    []FailedRow
	Created   int
	Updated   int
}

type UploadSummary struct {
	Message      string      `json:"message"`
	SuccessCount int         `json:"successCount"`
	FailedCount  int         `json:"failedCount"`
	FailedRows   []FailedRow `json:"failedRows"`
}

func (res *UploadResult) succeed(rowNum int, created bool) {
	res.Succeeded = append(res.Succeeded, rowNum)
	if created {
		res.Created++
	} else {
		res.Updated++
	}
}

func (res *UploadResult) fail(fr FailedRow) {
	res.Failed = append(res.Failed, fr)
}

func (res UploadResult) Summary() UploadSummary {
	failed := res.Failed
	if failed == nil {
		failed = []FailedRow{}
	}
	return UploadSummary{
		Message:      UploadMessage,
		SuccessCount: len(res.Succeeded),
		FailedCount:  len(res.Failed),
		FailedRows:   failed,
	}
}

// ValidateRow turns a normalized row into a candidate Profile.
// Every missing required column is reported, in Columns order.
func ValidateRow(row Row, rowNum int) (Profile, *FailedRow) {
	var missing []string
	for _, col := range Columns {
		if col.RequiredOnUpload() && row.Get(col) == "" {
			missing = append(missing, string(col))
		}
	}
	if len(missing) > 0 {
		return Profile{}, &FailedRow{Row: rowNum, Reason: reasonMissingFields + strings.Join(missing, ", "), RowData: row}
	}

	if email := row.Get(ColEmail); email != "" && !core.IsEmailShaped(email) {
		return Profile{}, &FailedRow{Row: rowNum, Reason: ReasonInvalidEmail, RowData: row}
	}

	var p Profile
	for _, col := range Columns {
		*columnFields[col](&p) = row.Get(col)
	}
	p.Clean()
	return p, nil
}

// resolveConflict rejects a candidate whose email belongs to a Supervisor with another business key.
func (svc *Service) resolveConflict(ctx context.Context, p Profile, row Row, rowNum int) *FailedRow {
	if p.Email == "" {
		return nil
	}
	_, err := svc.repo.GetSupervisor(ctx, GetFilter{Email: p.Email, NotNumber: p.Number})
	switch errors.Cause(err) {
	case ErrNotFound:
		return nil
	case nil:
		return &FailedRow{Row: rowNum, Reason: ReasonEmailInUse, RowData: row}
	default:
		return &FailedRow{Row: rowNum, Reason: reasonDatabase + err.Error(), RowData: row}
	}
}

// upsert writes p keyed by its business key, replacing every field of an existing Supervisor.
func (svc *Service) upsert(ctx context.Context, p Profile) (sup Supervisor, created bool, err error) {
	if err = svc.validate.Struct(p); err != nil {
		return Supervisor{}, false, errors.Wrap(err, "validating supervisor")
	}

	now := time.Now().UTC()
	existing, err := svc.repo.GetSupervisor(ctx, GetFilter{Number: p.Number})
	switch errors.Cause(err) {
	case nil:
		existing.Profile = p
		existing.UpdatedAt = now
		sup, err = svc.repo.UpdateSupervisor(ctx, existing)
		return sup, false, errors.Wrap(err, "updating supervisor")
	case ErrNotFound:
		sup, err = svc.repo.CreateSupervisor(ctx, Supervisor{Profile: p, CreatedAt: now, UpdatedAt: now})
		return sup, true, errors.Wrap(err, "creating supervisor")
	default:
		return Supervisor{}, false, errors.Wrap(err, "finding supervisor by number")
	}
}

// Upload reconciles spreadsheet rows with the store, one row at a time.
// Row failures never stop the upload and earlier writes are never rolled back.
// Blank rows are skipped but still count toward the line numbers of later rows.
func (svc *Service) Upload(ctx context.Context, rows []RawRow) UploadResult {
	var res UploadResult

	for i, raw := range rows {
		if raw.IsBlank() {
			continue
		}
		rowNum := RowNumber(i)
		row := Normalize(raw)

		p, failed := ValidateRow(row, rowNum)
		if failed != nil {
			res.fail(*failed)
			continue
		}

		if failed = svc.resolveConflict(ctx, p, row, rowNum); failed != nil {
			res.fail(*failed)
			continue
		}

		_, created, err := svc.upsert(ctx, p)
		if err != nil {
			svc.logger.Warn("supervisors upload: row "+p.Number+" not saved", err)
			res.fail(FailedRow{Row: rowNum, Reason: reasonDatabase + err.Error(), RowData: row})
			continue
		}
		res.succeed(rowNum, created)
	}

	svc.logger.Info("supervisors upload processed", map[string]interface{}{
		"rows":    len(rows),
		"created": res.Created,
		"updated": res.Updated,
		"failed":  len(res.Failed),
	})
	return res
}
