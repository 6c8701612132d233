package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core/calendar"
	"github.com/trezcool/escola/core/classroom"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/subject"
	"github.com/trezcool/escola/core/teacher"
)

const dashboardUpcomingEvents = 5

type (
	dashboardApi struct {
		studentSvc  *student.Service
		teacherSvc  *teacher.Service
		classSvc    *classroom.Service
		subjectSvc  *subject.Service
		calendarSvc *calendar.Service
	}

	DashboardResponse struct {
		ActiveStudents int              `json:"active_students"`
		ActiveTeachers int              `json:"active_teachers"`
		Classes        int              `json:"classes"`
		Subjects       int              `json:"subjects"`
		UpcomingEvents []calendar.Event `json:"upcoming_events"`
	}
)

func registerDashboardAPI(
	g *echo.Group,
	studentSvc *student.Service,
	teacherSvc *teacher.Service,
	classSvc *classroom.Service,
	subjectSvc *subject.Service,
	calendarSvc *calendar.Service,
) {
	api := dashboardApi{
		studentSvc:  studentSvc,
		teacherSvc:  teacherSvc,
		classSvc:    classSvc,
		subjectSvc:  subjectSvc,
		calendarSvc: calendarSvc,
	}
	g.GET("/dashboard", api.retrieve)
}

func (api *dashboardApi) retrieve(ctx echo.Context) error {
	c := ctx.Request().Context()
	var (
		resp DashboardResponse
		err  error
	)

	if resp.ActiveStudents, err = api.studentSvc.CountActive(c); err != nil {
		return errors.Wrap(err, "counting students")
	}
	if resp.ActiveTeachers, err = api.teacherSvc.CountActive(c); err != nil {
		return errors.Wrap(err, "counting teachers")
	}
	if resp.Classes, err = api.classSvc.Count(c); err != nil {
		return errors.Wrap(err, "counting classes")
	}
	if resp.Subjects, err = api.subjectSvc.Count(c); err != nil {
		return errors.Wrap(err, "counting subjects")
	}
	if resp.UpcomingEvents, err = api.calendarSvc.Upcoming(c, dashboardUpcomingEvents); err != nil {
		return errors.Wrap(err, "querying upcoming events")
	}
	if resp.UpcomingEvents == nil {
		resp.UpcomingEvents = []calendar.Event{}
	}
	return ctx.JSON(http.StatusOK, resp)
}
