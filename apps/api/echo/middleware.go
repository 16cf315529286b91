package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core/supervisor"
)

const contextObjectKey = "object"

// ctxSupervisorMiddleware loads the Supervisor identified by the `:id` path param into the context.
func ctxSupervisorMiddleware(svc *supervisor.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sup, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == supervisor.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding supervisor by ID")
			}
			ctx.Set(contextObjectKey, sup)
			return next(ctx)
		}
	}
}
