package supervisor

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core"
)

var (
	// errors
	ErrNotFound     = errors.New("supervisor not found")
	ErrNumberExists = errors.New("a supervisor with this supervisor number already exists")
	ErrEmailExists  = errors.New("a supervisor with this email already exists")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrNumberExists or ErrEmailExists when another Supervisor,
		// not listed in excludedIDs, holds number or (non-empty) email.
		CheckUniqueness(ctx context.Context, number, email string, excludedIDs ...string) error
		// CreateSupervisor assigns a new ID. Unique index violations surface as
		// ErrNumberExists or ErrEmailExists.
		CreateSupervisor(ctx context.Context, sup Supervisor) (Supervisor, error)
		// QuerySupervisors applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on the number, names or email.
		QuerySupervisors(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Supervisor, error)
		GetSupervisor(ctx context.Context, filter GetFilter) (Supervisor, error)
		// UpdateSupervisor replaces every field but ID and CreatedAt.
		UpdateSupervisor(ctx context.Context, sup Supervisor) (Supervisor, error)
		DeleteSupervisorsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		mailSvc  core.EmailService
		conf     *core.Config
		logger   core.Logger
	}
)

func NewService(repo Repository, validate *validator.Validate, mailSvc core.EmailService, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: validate,
		mailSvc:  mailSvc,
		conf:     conf,
		logger:   logger,
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, number, email string, excludedIDs ...string) error {
	if err := svc.repo.CheckUniqueness(ctx, number, email, excludedIDs...); err != nil {
		return uniquenessError(err)
	}
	return nil
}

// uniquenessError maps repository uniqueness errors to a core.ValidationError.
func uniquenessError(err error) error {
	var field string
	switch errors.Cause(err) {
	case ErrNumberExists:
		field = "supervisor_number"
	case ErrEmailExists:
		field = "email"
	default:
		return errors.Wrap(err, "checking supervisor uniqueness")
	}
	cause := errors.Cause(err)
	return core.NewValidationError(cause, core.FieldError{Field: field, Error: cause.Error()})
}

func (svc *Service) Create(ctx context.Context, ns NewSupervisor) (Supervisor, error) {
	if err := ns.Validate(ctx, svc.validate, svc); err != nil {
		return Supervisor{}, err
	}

	now := time.Now().UTC()
	sup, err := svc.repo.CreateSupervisor(ctx, Supervisor{
		Profile:   ns.Profile,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if c := errors.Cause(err); c == ErrNumberExists || c == ErrEmailExists {
			return Supervisor{}, uniquenessError(err)
		}
		return Supervisor{}, errors.Wrap(err, "creating supervisor")
	}
	return sup, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Supervisor, error) {
	return svc.repo.QuerySupervisors(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Supervisor, error) {
	if id == "" {
		return Supervisor{}, ErrNotFound
	}
	return svc.repo.GetSupervisor(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByNumber(ctx context.Context, number string) (Supervisor, error) {
	number = core.CleanString(number)
	if number == "" {
		return Supervisor{}, ErrNotFound
	}
	return svc.repo.GetSupervisor(ctx, GetFilter{Number: number})
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateSupervisor) (Supervisor, error) {
	orig, err := svc.GetByID(ctx, id)
	if err != nil {
		return Supervisor{}, err
	}
	if err = us.Validate(ctx, orig, svc.validate, svc); err != nil {
		return Supervisor{}, err
	}

	orig.Profile = us.Profile
	orig.UpdatedAt = time.Now().UTC()
	sup, err := svc.repo.UpdateSupervisor(ctx, orig)
	if err != nil {
		switch errors.Cause(err) {
		case ErrNotFound:
			return Supervisor{}, ErrNotFound
		case ErrNumberExists, ErrEmailExists:
			return Supervisor{}, uniquenessError(err)
		}
		return Supervisor{}, errors.Wrap(err, "updating supervisor")
	}
	return sup, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	cnt, err := svc.repo.DeleteSupervisorsByID(ctx, id)
	if err != nil {
		return errors.Wrap(err, "deleting supervisor")
	}
	if cnt == 0 {
		return ErrNotFound
	}
	return nil
}

// UploadReport is the data rendered in the upload report email.
type UploadReport struct {
	Name     string
	Filename string
	UploadSummary
}

// NotifyUploader emails the upload summary to the caller, when enabled.
func (svc *Service) NotifyUploader(by core.Principal, filename string, summary UploadSummary) {
	if svc.mailSvc == nil || !svc.conf.Upload.NotifyUploader || by.Email == "" {
		return
	}
	name := by.Name
	if name == "" {
		name = by.Email
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: by.Name, Address: by.Email}},
		Subject:      "Supervisors upload report",
		TemplateName: "upload_report",
		TemplateData: UploadReport{
			Name:          name,
			Filename:      filename,
			UploadSummary: summary,
		},
	})
}
