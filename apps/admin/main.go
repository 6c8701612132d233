package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/classroom"
	"github.com/trezcool/escola/core/grade"
	"github.com/trezcool/escola/core/schedule"
	"github.com/trezcool/escola/core/student"
	logsvc "github.com/trezcool/escola/services/logger"
	"github.com/trezcool/escola/storage/database"
	sqlxrepos "github.com/trezcool/escola/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	grid, err := schedule.NewGrid(conf.Schedule)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading schedule grid: %v", err), err)
	}
	classSvc := classroom.NewService(sqlxrepos.NewClassRepository(db))
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db))

	// start CLI
	cli := commandLine{
		conf:        conf,
		db:          db,
		gradeSvc:    grade.NewService(sqlxrepos.NewGradeRepository(db), classSvc, studentSvc, conf.Grading.AcademicYear),
		scheduleSvc: schedule.NewService(sqlxrepos.NewScheduleRepository(db), classSvc, schedule.NewGenerator(conf.Schedule), grid),
		in:          os.Stdin,
		out:         os.Stdout,
	}
	err = cli.run(os.Args)
	if err != nil && err != errHelp {
		logger.Error(fmt.Sprintf("error: %v", err), err)
	}
	_ = db.Close()
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}
