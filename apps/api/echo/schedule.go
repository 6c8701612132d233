package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core/schedule"
)

var errEntryNotFoundInCtx = errors.New("schedule entry not found in echo.Context")

// scheduleApi edits single lessons; whole-class operations live under /classes/:id/schedule.
type scheduleApi struct {
	svc      *schedule.Service
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, svc *schedule.Service, validate *validator.Validate) {
	api := scheduleApi{svc: svc, validate: validate}

	sg := g.Group("/schedules", adminMiddleware())
	sg.POST("", api.create)

	dg := sg.Group("/:id", objectMiddleware(api.object))
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *scheduleApi) object(ctx context.Context, id string) (interface{}, error) {
	return api.svc.Get(ctx, id)
}

func (api *scheduleApi) create(ctx echo.Context) error {
	var data schedule.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating schedule entry")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *scheduleApi) update(ctx echo.Context) error {
	e, ok := ctx.Get(objectContextKey).(schedule.Entry)
	if !ok {
		return errors.Wrap(errEntryNotFoundInCtx, "retrieving object from context")
	}

	var data schedule.UpdateEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntry")
	}
	if err := data.Validate(e, api.validate); err != nil {
		return err
	}

	e, err := api.svc.Update(ctx.Request().Context(), e, data)
	if err != nil {
		return errors.Wrap(err, "updating schedule entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	e, ok := ctx.Get(objectContextKey).(schedule.Entry)
	if !ok {
		return errors.Wrap(errEntryNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), e.ID); err != nil {
		return errors.Wrap(err, "deleting schedule entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}
