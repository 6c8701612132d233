package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/trezcool/escola/apps/api/echo"
	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/calendar"
	"github.com/trezcool/escola/core/classroom"
	"github.com/trezcool/escola/core/grade"
	"github.com/trezcool/escola/core/notification"
	"github.com/trezcool/escola/core/schedule"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/subject"
	"github.com/trezcool/escola/core/teacher"
	logsvc "github.com/trezcool/escola/services/logger"
	"github.com/trezcool/escola/storage/database"
	inmemdb "github.com/trezcool/escola/storage/database/inmem"
	sqlxrepos "github.com/trezcool/escola/storage/database/sqlx"
)

// memoryEngine keeps everything in process memory; handy for demos, lost on restart.
const memoryEngine = "memory"

type repositories struct {
	subject  subject.Repository
	student  student.Repository
	teacher  teacher.Repository
	class    classroom.Repository
	schedule schedule.Repository
	grade    grade.Repository
	calendar calendar.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	repos, closer, err := setUpRepos(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = closer.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	grid, err := schedule.NewGrid(conf.Schedule)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading schedule grid: %v", err), err)
	}

	subjectSvc := subject.NewService(repos.subject)
	studentSvc := student.NewService(repos.student)
	teacherSvc := teacher.NewService(repos.teacher)
	classSvc := classroom.NewService(repos.class)
	calendarSvc := calendar.NewService(repos.calendar)
	scheduleSvc := schedule.NewService(repos.schedule, classSvc, schedule.NewGenerator(conf.Schedule), grid)
	gradeSvc := grade.NewService(repos.grade, classSvc, studentSvc, conf.Grading.AcademicYear)
	board := notification.NewBoard(notification.NewSeed(studentSvc, calendarSvc))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	schedule.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			SubjectSvc:  subjectSvc,
			StudentSvc:  studentSvc,
			TeacherSvc:  teacherSvc,
			ClassSvc:    classSvc,
			ScheduleSvc: scheduleSvc,
			GradeSvc:    gradeSvc,
			CalendarSvc: calendarSvc,
			Board:       board,
			Validate:    validate,
			Translator:  translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpRepos returns the repositories of the configured storage engine, and what to close on exit.
func setUpRepos(conf *core.Config) (repositories, io.Closer, error) {
	if conf.Database.Engine == memoryEngine {
		db := inmemdb.NewDB()
		return repositories{
			subject:  inmemdb.NewSubjectRepository(db),
			student:  inmemdb.NewStudentRepository(db),
			teacher:  inmemdb.NewTeacherRepository(db),
			class:    inmemdb.NewClassRepository(db),
			schedule: inmemdb.NewScheduleRepository(db),
			grade:    inmemdb.NewGradeRepository(db),
			calendar: inmemdb.NewCalendarRepository(db),
		}, io.NopCloser(nil), nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return repositories{}, nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return repositories{}, nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return repositories{}, nil, err
	}
	return repositories{
		subject:  sqlxrepos.NewSubjectRepository(db),
		student:  sqlxrepos.NewStudentRepository(db),
		teacher:  sqlxrepos.NewTeacherRepository(db),
		class:    sqlxrepos.NewClassRepository(db),
		schedule: sqlxrepos.NewScheduleRepository(db),
		grade:    sqlxrepos.NewGradeRepository(db),
		calendar: sqlxrepos.NewCalendarRepository(db),
	}, db, nil
}
