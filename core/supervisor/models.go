package supervisor

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core"
)

// Profile holds every business field of a Supervisor.
type Profile struct {
	Number         string `json:"supervisor_number" validate:"required"`
	Title          string `json:"title"`
	Initials       string `json:"initials"`
	FirstName      string `json:"first_name" validate:"required"`
	Surname        string `json:"surname" validate:"required"`
	Designation    string `json:"designation" validate:"required"`
	OfficePhone    string `json:"office_phone" validate:"required"`
	MobilePhone    string `json:"mobile_phone" validate:"required"`
	Email          string `json:"email" validate:"omitempty,emailshape"`
	Section        string `json:"section" validate:"required"`
	Division       string `json:"division" validate:"required"`
	CostCentreCode string `json:"cost_centre_code" validate:"required"`
	GroupName      string `json:"group_name" validate:"required"`
	SalaryGrade    string `json:"salary_grade" validate:"required"`
}

// Clean trims every field; the email is also lowered.
func (p *Profile) Clean() {
	for _, col := range Columns {
		fld := columnFields[col](p)
		*fld = core.CleanString(*fld, col == ColEmail)
	}
}

type Supervisor struct {
	ID string `json:"id"`
	Profile
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// FullName returns "Title Initials FirstName Surname", skipping blanks.
func (s Supervisor) FullName() string {
	name := ""
	for _, part := range []string{s.Title, s.Initials, s.FirstName, s.Surname} {
		if part == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += part
	}
	return name
}

// NewSupervisor contains information needed to create a new Supervisor.
type NewSupervisor struct {
	Profile
}

func (ns *NewSupervisor) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ns.Clean()

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, ns.Number, ns.Email)
}

// UpdateSupervisor defines what information may be provided to modify an existing Supervisor.
// Blank fields keep their current value.
type UpdateSupervisor struct {
	Profile
}

func (us *UpdateSupervisor) Validate(ctx context.Context, orig Supervisor, validate *validator.Validate, svc *Service) error {
	us.Clean()
	for _, col := range Columns {
		fld := columnFields[col](&us.Profile)
		if *fld == "" {
			*fld = orig.Value(col)
		}
	}

	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, us.Number, us.Email, orig.ID)
}

// GetFilter selects a single Supervisor. Set fields are ANDed.
type GetFilter struct {
	ID     string
	Number string
	Email  string
	// NotNumber excludes the Supervisor holding this business key.
	NotNumber string
}

type QueryFilter struct {
	Search   string `query:"search"`
	Section  string `query:"section"`
	Division string `query:"division"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Section == "" && qf.Division == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Section = core.CleanString(qf.Section)
	qf.Division = core.CleanString(qf.Division)
}

// OrderingFields are the fields Supervisors can be sorted by.
var OrderingFields = map[string]bool{
	"supervisor_number": true,
	"first_name":        true,
	"surname":           true,
	"email":             true,
	"section":           true,
	"division":          true,
	"created_at":        true,
	"updated_at":        true,
}
