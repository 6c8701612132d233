package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"

	echoapi "github.com/trezcool/escola/apps/api/echo"
	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/schedule"
)

// seedPeriods creates the missing bimesters of year and lists them.
func (cli *commandLine) seedPeriods(year int) error {
	if year == 0 {
		year = cli.gradeSvc.AcademicYear()
	}
	if err := vala.BeginValidation().Validate(
		vala.GreaterThan(year, 1999, "year"),
	).Check(); err != nil {
		return err
	}

	periods, err := cli.gradeSvc.SeedPeriods(context.Background(), year)
	if err != nil {
		return err
	}
	for _, p := range periods {
		fmt.Fprintf(cli.out, "%s\t%s\t%s\n", p.Name, p.StartDate, p.EndDate)
	}
	return nil
}

func (cli *commandLine) genSchedule(classID string, req schedule.GenerateRequest) error {
	res, err := cli.scheduleSvc.Generate(context.Background(), classID, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "seed: %d\n", res.Seed)
	fmt.Fprintf(cli.out, "placed: %d\n", len(res.Entries))
	for _, e := range res.Entries {
		fmt.Fprintf(cli.out, "  %s %s-%s\t%s\t%s\n", e.DayOfWeek, e.StartTime, e.EndTime, e.SubjectName, e.TeacherName)
	}
	if !res.Complete {
		fmt.Fprintf(cli.out, "unplaced: %d\n", len(res.Unplaced))
		for _, p := range res.Unplaced {
			fmt.Fprintf(cli.out, "  subject %s, teacher %s\n", p.SubjectID, p.TeacherID)
		}
	}
	return nil
}

func (cli *commandLine) issueToken(p core.Principal, ttl time.Duration) error {
	for _, role := range p.Roles {
		if !core.IsRole(role) {
			return fmt.Errorf("unknown role %q", role)
		}
	}
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(p.ID, "sub"),
		vala.GreaterThan(int(ttl/time.Second), 0, "ttl"),
	).Check(); err != nil {
		return err
	}

	token, err := echoapi.GenerateToken(echoapi.NewClaims(p, cli.conf.AppName, ttl), cli.conf.SecretKey)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
