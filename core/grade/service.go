package grade

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/classroom"
	"github.com/trezcool/escola/core/student"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("grade not found")
	ErrPeriodsMissing = core.NewPreconditionError("the bimonthly grading periods of this year do not exist yet")
)

// bimester calendar used when seeding a year: month/day of start and end
var bimesters = [periodsPerYear][2]string{
	{"02-01", "04-30"},
	{"05-01", "07-15"},
	{"08-01", "09-30"},
	{"10-01", "12-15"},
}

type (
	Repository interface {
		// QueryGradingPeriods returns periods ordered by type then number.
		QueryGradingPeriods(ctx context.Context, filter PeriodFilter, exec ...core.DBExecutor) ([]GradingPeriod, error)
		CreateGradingPeriods(ctx context.Context, periods []GradingPeriod, exec ...core.DBExecutor) ([]GradingPeriod, error)
		QueryGrades(ctx context.Context, filter GradeFilter, exec ...core.DBExecutor) ([]Grade, error)
		// UpsertGrades inserts grades or updates the score of the grade with the same (student, subject, period).
		UpsertGrades(ctx context.Context, grades []Grade, exec ...core.DBExecutor) ([]Grade, error)
		GetGrade(ctx context.Context, id string, exec ...core.DBExecutor) (Grade, error)
		DeleteGrade(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo       Repository
		classSvc   *classroom.Service
		studentSvc *student.Service
		year       int
	}
)

// NewService returns a grade Service; year is the academic year used when none is given.
func NewService(repo Repository, classSvc *classroom.Service, studentSvc *student.Service, year int) *Service {
	if year == 0 {
		year = time.Now().Year()
	}
	return &Service{
		repo:       repo,
		classSvc:   classSvc,
		studentSvc: studentSvc,
		year:       year,
	}
}

// AcademicYear is the default academic year.
func (svc *Service) AcademicYear() int {
	return svc.year
}

func (svc *Service) ListPeriods(ctx context.Context, filter PeriodFilter) ([]GradingPeriod, error) {
	filter.Clean(svc.year)
	return svc.repo.QueryGradingPeriods(ctx, filter)
}

// SeedPeriods creates the missing bimonthly periods of the year and returns all four.
func (svc *Service) SeedPeriods(ctx context.Context, year int) ([]GradingPeriod, error) {
	if year == 0 {
		year = svc.year
	}
	existing, err := svc.repo.QueryGradingPeriods(ctx, PeriodFilter{Year: year, PeriodType: PeriodBimonthly})
	if err != nil {
		return nil, errors.Wrap(err, "querying grading periods")
	}
	have := make(map[int]bool, len(existing))
	for _, p := range existing {
		have[p.PeriodNumber] = true
	}

	now := time.Now().UTC()
	var missing []GradingPeriod
	for i, dates := range bimesters {
		num := i + 1
		if have[num] {
			continue
		}
		missing = append(missing, GradingPeriod{
			AcademicYear: year,
			PeriodType:   PeriodBimonthly,
			PeriodNumber: num,
			Name:         fmt.Sprintf("%dº Bimestre", num),
			StartDate:    fmt.Sprintf("%d-%s", year, dates[0]),
			EndDate:      fmt.Sprintf("%d-%s", year, dates[1]),
			CreatedAt:    now,
		})
	}
	if len(missing) > 0 {
		if _, err = svc.repo.CreateGradingPeriods(ctx, missing); err != nil {
			return nil, errors.Wrap(err, "creating grading periods")
		}
	}
	return svc.repo.QueryGradingPeriods(ctx, PeriodFilter{Year: year, PeriodType: PeriodBimonthly})
}

// Sheet builds the grade sheet: one row per student of the class, ordered by name.
func (svc *Service) Sheet(ctx context.Context, q SheetQuery) (Sheet, error) {
	if q.Year == 0 {
		q.Year = svc.year
	}
	if _, err := svc.classSvc.Get(ctx, q.ClassID); err != nil {
		return Sheet{}, err
	}

	students, err := svc.studentSvc.ListByClass(ctx, q.ClassID)
	if err != nil {
		return Sheet{}, errors.Wrap(err, "listing class students")
	}
	periods, err := svc.repo.QueryGradingPeriods(ctx, PeriodFilter{Year: q.Year, PeriodType: PeriodBimonthly})
	if err != nil {
		return Sheet{}, errors.Wrap(err, "querying grading periods")
	}

	sheet := Sheet{
		ClassID:   q.ClassID,
		SubjectID: q.SubjectID,
		Year:      q.Year,
		Periods:   periods,
		Rows:      make([]SheetRow, 0, len(students)),
	}
	if len(students) == 0 {
		return sheet, nil
	}

	var grades []Grade
	if len(periods) > 0 {
		studentIDs := make([]string, 0, len(students))
		for _, s := range students {
			studentIDs = append(studentIDs, s.ID)
		}
		periodIDs := make([]string, 0, len(periods))
		for _, p := range periods {
			periodIDs = append(periodIDs, p.ID)
		}
		grades, err = svc.repo.QueryGrades(ctx, GradeFilter{SubjectID: q.SubjectID, StudentIDs: studentIDs, PeriodIDs: periodIDs})
		if err != nil {
			return Sheet{}, errors.Wrap(err, "querying grades")
		}
	}

	periodIdx := make(map[string]int, len(periods))
	for _, p := range periods {
		if p.PeriodNumber >= 1 && p.PeriodNumber <= periodsPerYear {
			periodIdx[p.ID] = p.PeriodNumber - 1
		}
	}
	byStudent := make(map[string][]Grade)
	for _, g := range grades {
		byStudent[g.StudentID] = append(byStudent[g.StudentID], g)
	}

	for _, s := range students {
		row := SheetRow{
			StudentID:          s.ID,
			StudentName:        s.FullName,
			RegistrationNumber: s.RegistrationNumber,
		}
		for _, g := range byStudent[s.ID] {
			idx, ok := periodIdx[g.GradingPeriodID]
			if !ok {
				continue
			}
			id := g.ID
			row.GradeIDs[idx] = &id
			row.Scores[idx] = g.Score
		}
		row.Summary = Summarize(row.Scores)
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

// Upsert saves a batch of scores keyed by (student, subject, period). Nil scores are skipped.
func (svc *Service) Upsert(ctx context.Context, ug UpsertGrades) ([]Grade, error) {
	now := time.Now().UTC()
	grades := make([]Grade, 0, len(ug.Grades))
	for _, g := range ug.Grades {
		if g.Score == nil {
			continue
		}
		grades = append(grades, Grade{
			StudentID:       g.StudentID,
			SubjectID:       g.SubjectID,
			GradingPeriodID: g.GradingPeriodID,
			Score:           g.Score,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	if len(grades) == 0 {
		return []Grade{}, nil
	}
	return svc.repo.UpsertGrades(ctx, grades)
}

func (svc *Service) Get(ctx context.Context, id string) (Grade, error) {
	return svc.repo.GetGrade(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteGrade(ctx, id)
}
