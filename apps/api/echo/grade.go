package echoapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/grade"
)

const maxImportSize = 5 << 20 // 5MB

type gradeApi struct {
	svc      *grade.Service
	validate *validator.Validate
}

func registerGradeAPI(g *echo.Group, svc *grade.Service, validate *validator.Validate) {
	api := gradeApi{svc: svc, validate: validate}

	pg := g.Group("/grading-periods")
	pg.GET("", api.queryPeriods)
	pg.POST("/seed", api.seedPeriods, adminMiddleware())

	grader := roleMiddleware(core.RoleAdmin, core.RoleTeacher)
	gg := g.Group("/grades")
	gg.GET("", api.sheet)
	gg.PUT("", api.upsert, grader)
	gg.GET("/export", api.export)
	gg.POST("/import", api.importCSV, grader)
	gg.DELETE("/:id", api.destroy, adminMiddleware())
}

// bindSheetQuery reads the sheet selection from the query string, whatever the request body is.
func (api *gradeApi) bindSheetQuery(ctx echo.Context) (grade.SheetQuery, error) {
	q := grade.SheetQuery{
		ClassID:   ctx.QueryParam("class_id"),
		SubjectID: ctx.QueryParam("subject_id"),
	}
	if y := core.CleanString(ctx.QueryParam("year")); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return q, core.NewValidationError(err, core.FieldError{Field: "year", Error: "year must be a number"})
		}
		q.Year = year
	}
	if err := q.Validate(api.validate, api.svc.AcademicYear()); err != nil {
		return q, err
	}
	return q, nil
}

func (api *gradeApi) queryPeriods(ctx echo.Context) error {
	var filter grade.PeriodFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []grade.GradingPeriod{})
	}
	periods, err := api.svc.ListPeriods(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying grading periods")
	}
	if periods == nil {
		periods = []grade.GradingPeriod{}
	}
	return ctx.JSON(http.StatusOK, periods)
}

type SeedPeriodsRequest struct {
	Year int `json:"year" validate:"omitempty,min=1900,max=3000"`
}

func (api *gradeApi) seedPeriods(ctx echo.Context) error {
	var data SeedPeriodsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SeedPeriodsRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	periods, err := api.svc.SeedPeriods(ctx.Request().Context(), data.Year)
	if err != nil {
		return errors.Wrap(err, "seeding grading periods")
	}
	return ctx.JSON(http.StatusOK, periods)
}

func (api *gradeApi) sheet(ctx echo.Context) error {
	q, err := api.bindSheetQuery(ctx)
	if err != nil {
		return err
	}
	sheet, err := api.svc.Sheet(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "building grade sheet")
	}
	return ctx.JSON(http.StatusOK, sheet)
}

func (api *gradeApi) upsert(ctx echo.Context) error {
	var data grade.UpsertGrades
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertGrades")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	grades, err := api.svc.Upsert(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "upserting grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) export(ctx echo.Context) error {
	q, err := api.bindSheetQuery(ctx)
	if err != nil {
		return err
	}
	sheet, err := api.svc.Sheet(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "building grade sheet")
	}
	return csvAttachment(ctx, fmt.Sprintf("notas-%d.csv", q.Year), grade.ExportCSV(sheet))
}

func (api *gradeApi) importCSV(ctx echo.Context) error {
	q, err := api.bindSheetQuery(ctx)
	if err != nil {
		return err
	}
	body := io.LimitReader(ctx.Request().Body, maxImportSize)
	report, err := api.svc.ImportCSV(ctx.Request().Context(), q, body)
	if err != nil {
		return errors.Wrap(err, "importing grades")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}
