package echoapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core/classroom"
	"github.com/trezcool/escola/core/schedule"
	"github.com/trezcool/escola/core/teacher"
)

var errClassNotFoundInCtx = errors.New("class object not found in echo.Context")

type classApi struct {
	svc         *classroom.Service
	teacherSvc  *teacher.Service
	scheduleSvc *schedule.Service
	validate    *validator.Validate
}

func registerClassAPI(
	g *echo.Group,
	svc *classroom.Service,
	teacherSvc *teacher.Service,
	scheduleSvc *schedule.Service,
	validate *validator.Validate,
) {
	api := classApi{
		svc:         svc,
		teacherSvc:  teacherSvc,
		scheduleSvc: scheduleSvc,
		validate:    validate,
	}

	cg := g.Group("/classes")
	cg.GET("", api.query)
	cg.POST("", api.create, adminMiddleware())

	// detail endpoints
	dg := cg.Group("/:id", objectMiddleware(api.object))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())

	dg.GET("/assignments", api.queryAssignments)
	dg.POST("/assignments", api.assign, adminMiddleware())

	dg.GET("/schedule", api.schedule)
	dg.DELETE("/schedule", api.clearSchedule, adminMiddleware())
	dg.POST("/schedule/generate", api.generateSchedule, adminMiddleware())
	dg.GET("/schedule/export", api.exportSchedule)
}

func (api *classApi) object(ctx context.Context, id string) (interface{}, error) {
	return api.svc.Get(ctx, id)
}

func ctxClass(ctx echo.Context) (classroom.Class, error) {
	cls, ok := ctx.Get(objectContextKey).(classroom.Class)
	if !ok {
		return classroom.Class{}, errors.Wrap(errClassNotFoundInCtx, "retrieving object from context")
	}
	return cls, nil
}

func (api *classApi) create(ctx echo.Context) error {
	var data classroom.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) query(ctx echo.Context) error {
	filter := new(classroom.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []classroom.Class{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	classes, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []classroom.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	cls, err := ctxClass(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) update(ctx echo.Context) error {
	cls, err := ctxClass(ctx)
	if err != nil {
		return err
	}

	var data classroom.UpdateClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err = data.Validate(cls, api.validate); err != nil {
		return err
	}

	if cls, err = api.svc.Update(ctx.Request().Context(), cls, data); err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) destroy(ctx echo.Context) error {
	cls, err := ctxClass(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), cls.ID); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) queryAssignments(ctx echo.Context) error {
	cls, err := ctxClass(ctx)
	if err != nil {
		return err
	}
	assignments, err := api.teacherSvc.ListByClass(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "querying class assignments")
	}
	if assignments == nil {
		assignments = []teacher.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *classApi) assign(ctx echo.Context) error {
	cls, err := ctxClass(ctx)
	if err != nil {
		return err
	}

	var data teacher.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	data.ClassID = &cls.ID
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.teacherSvc.Assign(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "assigning teacher")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *classApi) schedule(ctx echo.Context) error {
	cls, err := ctxClass(ctx)
	if err != nil {
		return err
	}
	entries, err := api.scheduleSvc.ListByClass(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "listing class schedule")
	}
	if entries == nil {
		entries = []schedule.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *classApi) clearSchedule(ctx echo.Context) error {
	cls, err := ctxClass(ctx)
	if err != nil {
		return err
	}
	cnt, err := api.scheduleSvc.Clear(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "clearing class schedule")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: cnt})
}

func (api *classApi) generateSchedule(ctx echo.Context) error {
	cls, err := ctxClass(ctx)
	if err != nil {
		return err
	}

	var data schedule.GenerateRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.scheduleSvc.Generate(ctx.Request().Context(), cls.ID, data)
	if err != nil {
		return errors.Wrap(err, "generating class schedule")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *classApi) exportSchedule(ctx echo.Context) error {
	cls, err := ctxClass(ctx)
	if err != nil {
		return err
	}
	entries, err := api.scheduleSvc.ListByClass(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "listing class schedule")
	}
	content, err := schedule.ExportCSV(api.scheduleSvc.DefaultGrid(), entries)
	if err != nil {
		return errors.Wrap(err, "exporting class schedule")
	}
	return csvAttachment(ctx, fmt.Sprintf("horario-%s.csv", cls.Name), content)
}

// csvAttachment sends content as a downloadable CSV file.
func csvAttachment(ctx echo.Context, filename, content string) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(content))
}
