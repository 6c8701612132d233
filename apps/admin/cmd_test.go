package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/escola/apps/api/echo"
	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/classroom"
	"github.com/trezcool/escola/core/grade"
	"github.com/trezcool/escola/core/schedule"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/storage/database/inmem"
	"github.com/trezcool/escola/tests"
)

const testYear = 2024

var db *inmemdb.DB

func testConfig() *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Escola",
		SecretKey: "test-secret",
		Schedule: core.ScheduleConfig{
			Days:            []string{"Monday", "Tuesday", "Wednesday"},
			TimeSlots:       []string{"07:00-07:50", "07:50-08:40"},
			PeriodMinutes:   50,
			MinPeriods:      2,
			DefaultWorkload: 60,
		},
		Grading: core.GradingConfig{AcademicYear: testYear},
	}
}

func setup(t *testing.T, input string) (*commandLine, *bytes.Buffer) {
	conf := testConfig()

	// set up DB & services
	db = inmemdb.NewDB()
	grid, err := schedule.NewGrid(conf.Schedule)
	require.NoError(t, err)
	classSvc := classroom.NewService(inmemdb.NewClassRepository(db))
	studentSvc := student.NewService(inmemdb.NewStudentRepository(db))

	// start CLI
	var out bytes.Buffer
	return &commandLine{
		conf:        conf,
		gradeSvc:    grade.NewService(inmemdb.NewGradeRepository(db), classSvc, studentSvc, conf.Grading.AcademicYear),
		scheduleSvc: schedule.NewService(inmemdb.NewScheduleRepository(db), classSvc, schedule.NewGenerator(conf.Schedule), grid),
		in:          strings.NewReader(input),
		out:         &out,
	}, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantErrSub string // substring of the error message
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	case tt.wantErrSub != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrSub)
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _ := setup(t, "")

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate: no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "genschedule: no class", args: []string{"genschedule"}, wantErr: errHelp},
		{name: "genschedule: unknown flag", args: []string{"genschedule", "-lol"}, wantErr: errHelp},
		{name: "issuetoken: no sub", args: []string{"issuetoken", "-roles", "admin"}, wantErr: errHelp},
		{name: "issuetoken: no roles", args: []string{"issuetoken", "-sub", "admin-1"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t, "")

	gooseRunFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "0"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "attendance", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_seedPeriods(t *testing.T) {
	cli, out := setup(t, "")

	tests := []cliTest{
		{name: "invalid year", args: []string{"seedperiods", "-year", "12"}, wantErrSub: "year"},
		{name: "default year", args: []string{"seedperiods"}},
		{name: "given year", args: []string{"seedperiods", "-year", "2030"}},
		{name: "idempotent", args: []string{"seedperiods", "-year", "2030"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	for _, year := range []int{testYear, 2030} {
		periods, err := cli.gradeSvc.ListPeriods(context.Background(), grade.PeriodFilter{Year: year})
		require.NoError(t, err)
		assert.Len(t, periods, 4)
	}
	assert.Contains(t, out.String(), "1º Bimestre\t2030-")
}

func Test_commandLine_genSchedule(t *testing.T) {
	cli, out := setup(t, "")

	math := testutil.CreateSubject(t, inmemdb.NewSubjectRepository(db), "Matemática", "MAT", testutil.IntPtr(100))
	cls := testutil.CreateClass(t, inmemdb.NewClassRepository(db), "6º A", testYear, nil)
	tch := testutil.CreateTeacher(t, inmemdb.NewTeacherRepository(db), "Ana Souza", "ana@escola.test")
	testutil.Assign(t, inmemdb.NewTeacherRepository(db), tch.ID, math.ID, cls.ID)

	origIsTerminal := isTerminalFunc
	defer func() { isTerminalFunc = origIsTerminal }()

	t.Run("not a terminal", func(t *testing.T) {
		isTerminalFunc = func(int) bool { return false }
		err := cli.run([]string{"admin", "genschedule", "-class", cls.ID})
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), "pass -yes")
		}
	})

	t.Run("declined", func(t *testing.T) {
		isTerminalFunc = func(int) bool { return true }
		cli.in = strings.NewReader("n\n")
		assert.Equal(t, errAborted, cli.run([]string{"admin", "genschedule", "-class", cls.ID}))
	})

	t.Run("unknown class", func(t *testing.T) {
		err := cli.run([]string{"admin", "genschedule", "-class", testutil.UnknownID, "-yes"})
		assert.Equal(t, classroom.ErrNotFound, err)
	})

	t.Run("confirmed", func(t *testing.T) {
		isTerminalFunc = func(int) bool { return true }
		cli.in = strings.NewReader("yes\n")
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "genschedule", "-class", cls.ID, "-seed", "42"}))
		assert.Contains(t, out.String(), "seed: 42\n")
		assert.Contains(t, out.String(), "placed: 2\n")
		assert.NotContains(t, out.String(), "unplaced")

		entries, err := cli.scheduleSvc.ListByClass(context.Background(), cls.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("same seed, same schedule", func(t *testing.T) {
		before, err := cli.scheduleSvc.ListByClass(context.Background(), cls.ID)
		require.NoError(t, err)

		require.NoError(t, cli.run([]string{"admin", "genschedule", "-class", cls.ID, "-seed", "42", "-yes"}))
		after, err := cli.scheduleSvc.ListByClass(context.Background(), cls.ID)
		require.NoError(t, err)
		require.Len(t, after, len(before))
		for i := range before {
			assert.Equal(t, before[i].Cell(), after[i].Cell())
		}
	})
}

func Test_commandLine_issueToken(t *testing.T) {
	cli, out := setup(t, "")

	tests := []cliTest{
		{name: "unknown role", args: []string{"issuetoken", "-sub", "admin-1", "-roles", "admin,root"}, wantErrStr: "unknown role \"root\""},
		{name: "negative ttl", args: []string{"issuetoken", "-sub", "admin-1", "-roles", "admin", "-ttl", "-1h"}, wantErrSub: "ttl"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	out.Reset()
	args := []string{"admin", "issuetoken", "-sub", "prof-1", "-name", "Ana", "-roles", "teacher,parent", "-ttl", "2h"}
	require.NoError(t, cli.run(args))

	claims := new(echoapi.Claims)
	token, err := jwt.ParseWithClaims(strings.TrimSpace(out.String()), claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cli.conf.SecretKey), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, core.Principal{ID: "prof-1", Name: "Ana", Roles: []string{core.RoleTeacher, core.RoleParent}}, claims.Principal())
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), time.Unix(claims.ExpiresAt, 0), time.Minute)
}
