package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/grade"
	"github.com/trezcool/escola/core/schedule"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp    = errors.New("help provided")
	errAborted = errors.New("aborted")
)

type commandLine struct {
	conf        *core.Config
	db          *sqlx.DB
	gradeSvc    *grade.Service
	scheduleSvc *schedule.Service
	in          io.Reader
	out         io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, redo, version...)")
	fmt.Fprintln(cli.out, "  seedperiods [-year YEAR] - create the four bimesters of the academic year")
	fmt.Fprintln(cli.out, "  genschedule -class ID [-seed N] [-cross-class] [-yes] - generate a class's weekly schedule")
	fmt.Fprintln(cli.out, "  issuetoken -sub ID -roles ROLE[,ROLE] [-name NAME] [-email EMAIL] [-ttl DURATION] - sign an API token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedPeriodsCmd := flag.NewFlagSet("seedperiods", flag.ContinueOnError)
	seedPeriodsYear := seedPeriodsCmd.Int("year", 0, "The academic year. Defaults to the configured one.")

	genScheduleCmd := flag.NewFlagSet("genschedule", flag.ContinueOnError)
	genScheduleClass := genScheduleCmd.String("class", "", "The class ID.")
	genScheduleSeed := genScheduleCmd.Int64("seed", 0, "Replays a previous run. Random when 0.")
	genScheduleCross := genScheduleCmd.Bool("cross-class", false, "Avoid booking a teacher in two classes at the same time.")
	genScheduleYes := genScheduleCmd.Bool("yes", false, "Do not ask for confirmation before replacing the current schedule.")

	issueTokenCmd := flag.NewFlagSet("issuetoken", flag.ContinueOnError)
	issueTokenSub := issueTokenCmd.String("sub", "", "The principal ID.")
	issueTokenName := issueTokenCmd.String("name", "", "The principal's name.")
	issueTokenEmail := issueTokenCmd.String("email", "", "The principal's email.")
	issueTokenRoles := issueTokenCmd.String("roles", "", "Comma separated roles: "+strings.Join(core.AllRoles, ", "))
	issueTokenTTL := issueTokenCmd.Duration("ttl", 24*time.Hour, "How long the token is valid.")

	for _, fs := range []*flag.FlagSet{seedPeriodsCmd, genScheduleCmd, issueTokenCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "seedperiods":
		if err := seedPeriodsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.seedPeriods(*seedPeriodsYear)

	case "genschedule":
		if err := genScheduleCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *genScheduleClass == "" {
			genScheduleCmd.Usage()
			return errHelp
		}
		if !*genScheduleYes {
			ok, err := cli.confirm("This replaces the current schedule of the class. Continue? [y/N] ")
			if err != nil {
				return err
			}
			if !ok {
				return errAborted
			}
		}
		req := schedule.GenerateRequest{AvoidCrossClassConflicts: *genScheduleCross}
		if *genScheduleSeed != 0 {
			req.Seed = genScheduleSeed
		}
		return cli.genSchedule(*genScheduleClass, req)

	case "issuetoken":
		if err := issueTokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *issueTokenSub == "" || *issueTokenRoles == "" {
			issueTokenCmd.Usage()
			return errHelp
		}
		p := core.Principal{
			ID:    *issueTokenSub,
			Name:  *issueTokenName,
			Email: *issueTokenEmail,
			Roles: strings.Split(*issueTokenRoles, ","),
		}
		return cli.issueToken(p, *issueTokenTTL)

	default:
		cli.printUsage()
		return errHelp
	}
}

// confirm asks the operator a yes/no question. Without a terminal nobody can answer, so the caller must pass -yes.
func (cli *commandLine) confirm(question string) (bool, error) {
	if !isTerminalFunc(syscall.Stdin) {
		return false, errors.New("stdin is not a terminal: pass -yes to confirm")
	}
	fmt.Fprint(cli.out, question)
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
