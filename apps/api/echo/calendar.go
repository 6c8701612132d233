package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core/calendar"
)

var errEventNotFoundInCtx = errors.New("event object not found in echo.Context")

type calendarApi struct {
	svc      *calendar.Service
	validate *validator.Validate
}

func registerCalendarAPI(g *echo.Group, svc *calendar.Service, validate *validator.Validate) {
	api := calendarApi{svc: svc, validate: validate}

	eg := g.Group("/calendar/events")
	eg.GET("", api.query)
	eg.POST("", api.create, adminMiddleware())

	dg := eg.Group("/:id", objectMiddleware(api.object))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
}

func (api *calendarApi) object(ctx context.Context, id string) (interface{}, error) {
	return api.svc.Get(ctx, id)
}

func (api *calendarApi) create(ctx echo.Context) error {
	var data calendar.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	evt, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *calendarApi) query(ctx echo.Context) error {
	var filter calendar.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []calendar.Event{})
	}
	if err := filter.Validate(api.validate); err != nil {
		return err
	}

	events, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []calendar.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *calendarApi) retrieve(ctx echo.Context) error {
	evt, ok := ctx.Get(objectContextKey).(calendar.Event)
	if !ok {
		return errors.Wrap(errEventNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *calendarApi) update(ctx echo.Context) error {
	evt, ok := ctx.Get(objectContextKey).(calendar.Event)
	if !ok {
		return errors.Wrap(errEventNotFoundInCtx, "retrieving object from context")
	}

	var data calendar.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err := data.Validate(evt, api.validate); err != nil {
		return err
	}

	evt, err := api.svc.Update(ctx.Request().Context(), evt, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *calendarApi) destroy(ctx echo.Context) error {
	evt, ok := ctx.Get(objectContextKey).(calendar.Event)
	if !ok {
		return errors.Wrap(errEventNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), evt.ID); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}
