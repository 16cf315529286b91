package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core/supervisor"
)

const (
	supervisorTable = "supervisor"

	// constraints, see fs/migrations
	numberConstraint = "supervisor_number_key"
	emailConstraint  = "supervisor_email_key"

	pqUniqueViolation = "23505"
)

var supervisorColumns = []string{
	"id", "supervisor_number", "title", "initials", "first_name", "surname", "designation",
	"office_phone", "mobile_phone", "email", "section", "division", "cost_centre_code",
	"group_name", "salary_grade", "created_at", "updated_at",
}

type supervisorRow struct {
	ID             string      `db:"id"`
	Number         string      `db:"supervisor_number"`
	Title          string      `db:"title"`
	Initials       string      `db:"initials"`
	FirstName      string      `db:"first_name"`
	Surname        string      `db:"surname"`
	Designation    string      `db:"designation"`
	OfficePhone    string      `db:"office_phone"`
	MobilePhone    string      `db:"mobile_phone"`
	Email          null.String `db:"email"` // NULL when blank: the unique index ignores NULLs
	Section        string      `db:"section"`
	Division       string      `db:"division"`
	CostCentreCode string      `db:"cost_centre_code"`
	GroupName      string      `db:"group_name"`
	SalaryGrade    string      `db:"salary_grade"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

type supervisorRepository struct {
	exec sqlx.ExtContext
}

var _ supervisor.Repository = (*supervisorRepository)(nil) // interface compliance check

func NewSupervisorRepository(exec sqlx.ExtContext) *supervisorRepository {
	return &supervisorRepository{exec: exec}
}

func (repo supervisorRepository) toRow(sup supervisor.Supervisor) supervisorRow {
	return supervisorRow{
		ID:             sup.ID,
		Number:         sup.Number,
		Title:          sup.Title,
		Initials:       sup.Initials,
		FirstName:      sup.FirstName,
		Surname:        sup.Surname,
		Designation:    sup.Designation,
		OfficePhone:    sup.OfficePhone,
		MobilePhone:    sup.MobilePhone,
		Email:          null.NewString(sup.Email, sup.Email != ""),
		Section:        sup.Section,
		Division:       sup.Division,
		CostCentreCode: sup.CostCentreCode,
		GroupName:      sup.GroupName,
		SalaryGrade:    sup.SalaryGrade,
		CreatedAt:      sup.CreatedAt.UTC(),
		UpdatedAt:      sup.UpdatedAt.UTC(),
	}
}

func (repo supervisorRepository) fromRow(row supervisorRow) supervisor.Supervisor {
	return supervisor.Supervisor{
		ID: row.ID,
		Profile: supervisor.Profile{
			Number:         row.Number,
			Title:          row.Title,
			Initials:       row.Initials,
			FirstName:      row.FirstName,
			Surname:        row.Surname,
			Designation:    row.Designation,
			OfficePhone:    row.OfficePhone,
			MobilePhone:    row.MobilePhone,
			Email:          row.Email.String,
			Section:        row.Section,
			Division:       row.Division,
			CostCentreCode: row.CostCentreCode,
			GroupName:      row.GroupName,
			SalaryGrade:    row.SalaryGrade,
		},
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

// trapErr maps "no rows" to supervisor.ErrNotFound and unique violations to
// supervisor.ErrNumberExists / supervisor.ErrEmailExists.
func (repo supervisorRepository) trapErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return supervisor.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		switch pqErr.Constraint {
		case numberConstraint:
			return supervisor.ErrNumberExists
		case emailConstraint:
			return supervisor.ErrEmailExists
		}
	}
	return errors.Wrap(err, msg)
}

func (repo supervisorRepository) CheckUniqueness(ctx context.Context, number, email string, excludedIDs ...string) error {
	q := fmt.Sprintf("SELECT supervisor_number FROM %s WHERE (supervisor_number = ? OR email = ?)", supervisorTable)
	args := []interface{}{number, null.NewString(email, email != "")}
	if ids := validIDs(excludedIDs); len(ids) > 0 {
		q += " AND id NOT IN (?)"
		args = append(args, ids)
	}
	q += " LIMIT 1"

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}
	var holder string
	if err = sqlx.GetContext(ctx, repo.exec, &holder, repo.exec.Rebind(q), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return errors.Wrap(err, "checking supervisor uniqueness")
	}
	if holder == number {
		return supervisor.ErrNumberExists
	}
	return supervisor.ErrEmailExists
}

func (repo supervisorRepository) CreateSupervisor(ctx context.Context, sup supervisor.Supervisor) (supervisor.Supervisor, error) {
	sup.ID = uuid.New().String()

	cols := strings.Join(supervisorColumns, ", ")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s) RETURNING %s",
		supervisorTable, cols, strings.Join(supervisorColumns, ", :"), cols)
	q, args, err := repo.exec.BindNamed(q, repo.toRow(sup))
	if err != nil {
		return supervisor.Supervisor{}, errors.Wrap(err, "binding supervisor")
	}

	var row supervisorRow
	if err = sqlx.GetContext(ctx, repo.exec, &row, q, args...); err != nil {
		return supervisor.Supervisor{}, repo.trapErr(err, "inserting supervisor")
	}
	return repo.fromRow(row), nil
}

func (repo supervisorRepository) QuerySupervisors(ctx context.Context, filter *supervisor.QueryFilter, ordering []core.DBOrdering) ([]supervisor.Supervisor, error) {
	var (
		where []string
		args  []interface{}
	)

	if filter != nil {
		// supervisors with number, names or email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			where = append(where, "(supervisor_number ILIKE ? OR first_name ILIKE ? OR surname ILIKE ? OR email ILIKE ?)")
			args = append(args, val, val, val, val)
		}
		if filter.Section != "" {
			where = append(where, "LOWER(section) = LOWER(?)")
			args = append(args, filter.Section)
		}
		if filter.Division != "" {
			where = append(where, "LOWER(division) = LOWER(?)")
			args = append(args, filter.Division)
		}
	}

	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(supervisorColumns, ", "), supervisorTable)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + orderBy(ordering)

	var rows []supervisorRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying supervisors")
	}
	sups := make([]supervisor.Supervisor, 0, len(rows))
	for _, row := range rows {
		sups = append(sups, repo.fromRow(row))
	}
	return sups, nil
}

func (repo supervisorRepository) GetSupervisor(ctx context.Context, filter supervisor.GetFilter) (supervisor.Supervisor, error) {
	var (
		where []string
		args  []interface{}
	)

	if filter.ID != "" {
		if _, err := uuid.Parse(filter.ID); err != nil {
			return supervisor.Supervisor{}, supervisor.ErrNotFound
		}
		where = append(where, "id = ?")
		args = append(args, filter.ID)
	}
	if filter.Number != "" {
		where = append(where, "supervisor_number = ?")
		args = append(args, filter.Number)
	}
	if filter.Email != "" {
		where = append(where, "email = ?")
		args = append(args, filter.Email)
	}
	if filter.NotNumber != "" {
		where = append(where, "supervisor_number <> ?")
		args = append(args, filter.NotNumber)
	}
	if len(where) == 0 {
		return supervisor.Supervisor{}, supervisor.ErrNotFound
	}

	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1",
		strings.Join(supervisorColumns, ", "), supervisorTable, strings.Join(where, " AND "))

	var row supervisorRow
	if err := sqlx.GetContext(ctx, repo.exec, &row, repo.exec.Rebind(q), args...); err != nil {
		return supervisor.Supervisor{}, repo.trapErr(err, "finding supervisor")
	}
	return repo.fromRow(row), nil
}

func (repo supervisorRepository) UpdateSupervisor(ctx context.Context, sup supervisor.Supervisor) (supervisor.Supervisor, error) {
	if _, err := uuid.Parse(sup.ID); err != nil {
		return supervisor.Supervisor{}, supervisor.ErrNotFound
	}

	sets := make([]string, 0, len(supervisorColumns))
	for _, col := range supervisorColumns {
		if col == "id" || col == "created_at" {
			continue
		}
		sets = append(sets, col+" = :"+col)
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id RETURNING %s",
		supervisorTable, strings.Join(sets, ", "), strings.Join(supervisorColumns, ", "))
	q, args, err := repo.exec.BindNamed(q, repo.toRow(sup))
	if err != nil {
		return supervisor.Supervisor{}, errors.Wrap(err, "binding supervisor")
	}

	var row supervisorRow
	if err = sqlx.GetContext(ctx, repo.exec, &row, q, args...); err != nil {
		return supervisor.Supervisor{}, repo.trapErr(err, "updating supervisor")
	}
	return repo.fromRow(row), nil
}

func (repo supervisorRepository) DeleteSupervisorsByID(ctx context.Context, ids ...string) (int, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	q, args, err := sqlx.In(fmt.Sprintf("DELETE FROM %s WHERE id IN (?)", supervisorTable), ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.exec.ExecContext(ctx, repo.exec.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting supervisors")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted supervisors")
	}
	return int(cnt), nil
}

// validIDs drops ids that are not UUIDs; they cannot match any row.
func validIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	return valid
}

func orderBy(ordering []core.DBOrdering) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if supervisor.OrderingFields[ord.Field] {
			orderList = append(orderList, ord.String())
		}
	}
	if len(orderList) == 0 {
		return "supervisor_number ASC"
	}
	return strings.Join(orderList, ", ")
}
