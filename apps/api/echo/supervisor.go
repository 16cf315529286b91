package echoapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core/supervisor"
	metricsvc "github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/services/metrics"
	sheetsvc "github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/services/spreadsheet"
)

const (
	uploadFileField    = "file"
	templateFilename   = "supervisors_template.xlsx"
	exportFilename     = "supervisors.xlsx"
	errMsgFileRequired = "a spreadsheet file is required"
)

var errSupNotFoundInCtx = errors.New("supervisor object not found in echo.Context")

type supervisorApi struct {
	svc           *supervisor.Service
	metrics       *metricsvc.Recorder
	uploadMaxSize string
}

func registerSupervisorAPI(g *echo.Group, jwt echo.MiddlewareFunc, api supervisorApi) {
	sg := g.Group("/supervisors", jwt)

	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.POST("/upload", api.upload, middleware.BodyLimit(api.uploadMaxSize))
	sg.GET("/upload-template", api.template)
	sg.GET("/export", api.export)

	// detail endpoints
	dg := sg.Group("/:id", ctxSupervisorMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *supervisorApi) query(ctx echo.Context) error {
	filter := new(supervisor.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []supervisor.Supervisor{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, supervisor.OrderingFields)

	sups, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying supervisors")
	}
	if sups == nil {
		sups = []supervisor.Supervisor{}
	}
	return ctx.JSON(http.StatusOK, sups)
}

func (api *supervisorApi) create(ctx echo.Context) error {
	var data supervisor.NewSupervisor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSupervisor")
	}

	sup, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sup)
}

func (api *supervisorApi) retrieve(ctx echo.Context) error {
	sup, ok := ctx.Get(contextObjectKey).(supervisor.Supervisor)
	if !ok {
		return errors.Wrap(errSupNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, sup)
}

func (api *supervisorApi) update(ctx echo.Context) error {
	sup, ok := ctx.Get(contextObjectKey).(supervisor.Supervisor)
	if !ok {
		return errors.Wrap(errSupNotFoundInCtx, "retrieving object from context")
	}

	var data supervisor.UpdateSupervisor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSupervisor")
	}

	sup, err := api.svc.Update(ctx.Request().Context(), sup.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sup)
}

func (api *supervisorApi) destroy(ctx echo.Context) error {
	sup, ok := ctx.Get(contextObjectKey).(supervisor.Supervisor)
	if !ok {
		return errors.Wrap(errSupNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), sup.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *supervisorApi) upload(ctx echo.Context) error {
	fh, err := ctx.FormFile(uploadFileField)
	if err != nil {
		if herr, ok := errors.Cause(err).(*echo.HTTPError); ok {
			return herr
		}
		return core.NewValidationError(err, core.FieldError{Field: uploadFileField, Error: errMsgFileRequired})
	}

	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	rows, err := sheetsvc.ReadRows(f)
	if err != nil {
		switch cause := errors.Cause(err); cause {
		case sheetsvc.ErrNotSpreadsheet, sheetsvc.ErrUnreadable, sheetsvc.ErrNoSheet, supervisor.ErrNoEmailColumn:
			return core.NewValidationError(err, core.FieldError{Field: uploadFileField, Error: cause.Error()})
		default:
			if herr, ok := cause.(*echo.HTTPError); ok {
				return herr
			}
			return errors.Wrap(err, "reading spreadsheet")
		}
	}

	start := time.Now()
	res := api.svc.Upload(ctx.Request().Context(), rows)
	api.metrics.ObserveUpload(metricsvc.SourceAPI, res, time.Since(start))

	summary := res.Summary()
	if p, err := getContextPrincipal(ctx); err == nil {
		api.svc.NotifyUploader(p, fh.Filename, summary)
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *supervisorApi) template(ctx echo.Context) error {
	buf, err := sheetsvc.Template()
	if err != nil {
		return errors.Wrap(err, "building upload template")
	}
	return attachment(ctx, templateFilename, buf)
}

func (api *supervisorApi) export(ctx echo.Context) error {
	sups, err := api.svc.Query(ctx.Request().Context(), nil, nil)
	if err != nil {
		return errors.Wrap(err, "querying supervisors")
	}
	buf, err := sheetsvc.Export(sups)
	if err != nil {
		return errors.Wrap(err, "exporting supervisors")
	}
	return attachment(ctx, exportFilename, buf)
}

func attachment(ctx echo.Context, filename string, buf *bytes.Buffer) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, sheetsvc.ContentType, buf.Bytes())
}
