package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/grade"
)

var (
	periodColumns = "id, academic_year, period_type, period_number, name, start_date, end_date, created_at"
	periodSelect  = `SELECT id, academic_year, period_type, period_number, name, ` +
		dateColumn("start_date") + `, ` + dateColumn("end_date") + `, created_at FROM grading_period`
	gradeColumns = "id, student_id, subject_id, grading_period_id, score, created_at, updated_at"
)

type (
	periodRow struct {
		ID           string    `db:"id"`
		AcademicYear int       `db:"academic_year"`
		PeriodType   string    `db:"period_type"`
		PeriodNumber int       `db:"period_number"`
		Name         string    `db:"name"`
		StartDate    string    `db:"start_date"`
		EndDate      string    `db:"end_date"`
		CreatedAt    time.Time `db:"created_at"`
	}

	gradeRow struct {
		ID              string       `db:"id"`
		StudentID       string       `db:"student_id"`
		SubjectID       string       `db:"subject_id"`
		GradingPeriodID string       `db:"grading_period_id"`
		Score           null.Float64 `db:"score"`
		CreatedAt       time.Time    `db:"created_at"`
		UpdatedAt       time.Time    `db:"updated_at"`
	}
)

type gradeRepository struct {
	baseRepository
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(exec core.DBExecutor) *gradeRepository {
	return &gradeRepository{baseRepository{exec: exec}}
}

func (repo gradeRepository) unboilPeriod(row periodRow) grade.GradingPeriod {
	return grade.GradingPeriod{
		ID:           row.ID,
		AcademicYear: row.AcademicYear,
		PeriodType:   row.PeriodType,
		PeriodNumber: row.PeriodNumber,
		Name:         row.Name,
		StartDate:    row.StartDate,
		EndDate:      row.EndDate,
		CreatedAt:    row.CreatedAt.UTC(),
	}
}

func (repo gradeRepository) boil(g grade.Grade) gradeRow {
	return gradeRow{
		ID:              g.ID,
		StudentID:       g.StudentID,
		SubjectID:       g.SubjectID,
		GradingPeriodID: g.GradingPeriodID,
		Score:           null.Float64FromPtr(g.Score),
		CreatedAt:       g.CreatedAt.UTC(),
		UpdatedAt:       g.UpdatedAt.UTC(),
	}
}

func (repo gradeRepository) unboil(row gradeRow) grade.Grade {
	return grade.Grade{
		ID:              row.ID,
		StudentID:       row.StudentID,
		SubjectID:       row.SubjectID,
		GradingPeriodID: row.GradingPeriodID,
		Score:           row.Score.Ptr(),
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}

func (repo gradeRepository) QueryGradingPeriods(ctx context.Context, filter grade.PeriodFilter, exec ...core.DBExecutor) ([]grade.GradingPeriod, error) {
	var c conditions
	if filter.Year != 0 {
		c.add("academic_year = ?", filter.Year)
	}
	if filter.PeriodType != "" {
		c.add("period_type = ?", filter.PeriodType)
	}
	q, args, err := c.build(periodSelect, " ORDER BY academic_year ASC, period_type ASC, period_number ASC")
	if err != nil {
		return nil, err
	}

	var rows []periodRow
	if err = repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying grading periods")
	}
	periods := make([]grade.GradingPeriod, 0, len(rows))
	for _, row := range rows {
		periods = append(periods, repo.unboilPeriod(row))
	}
	return periods, nil
}

func (repo gradeRepository) CreateGradingPeriods(ctx context.Context, periods []grade.GradingPeriod, exec ...core.DBExecutor) ([]grade.GradingPeriod, error) {
	created := make([]grade.GradingPeriod, 0, len(periods))
	err := repo.inTx(ctx, exec, func(tx core.DBExecutor) error {
		for _, p := range periods {
			p.ID = uuid.New().String()
			row := periodRow{
				ID:           p.ID,
				AcademicYear: p.AcademicYear,
				PeriodType:   p.PeriodType,
				PeriodNumber: p.PeriodNumber,
				Name:         p.Name,
				StartDate:    p.StartDate,
				EndDate:      p.EndDate,
				CreatedAt:    p.CreatedAt.UTC(),
			}
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO grading_period (`+periodColumns+`)
				VALUES (:id, :academic_year, :period_type, :period_number, :name, :start_date, :end_date, :created_at)`, row)
			if err != nil {
				if isUniqueViolation(err) {
					return core.NewValidationError(err, core.FieldError{Field: "period_number", Error: "grading period already exists"})
				}
				return errors.Wrap(err, "inserting grading period")
			}
			created = append(created, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (repo gradeRepository) QueryGrades(ctx context.Context, filter grade.GradeFilter, exec ...core.DBExecutor) ([]grade.Grade, error) {
	var c conditions
	if filter.SubjectID != "" {
		if _, err := uuid.Parse(filter.SubjectID); err != nil {
			return []grade.Grade{}, nil
		}
		c.add("subject_id = ?", filter.SubjectID)
	}
	if filter.StudentIDs != nil {
		if len(filter.StudentIDs) == 0 {
			return []grade.Grade{}, nil
		}
		c.add("student_id::text IN (?)", filter.StudentIDs)
	}
	if filter.PeriodIDs != nil {
		if len(filter.PeriodIDs) == 0 {
			return []grade.Grade{}, nil
		}
		c.add("grading_period_id::text IN (?)", filter.PeriodIDs)
	}
	q, args, err := c.build("SELECT "+gradeColumns+" FROM grade", " ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, err
	}

	var rows []gradeRow
	if err = repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	grades := make([]grade.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, repo.unboil(row))
	}
	return grades, nil
}

// UpsertGrades writes the batch in one transaction; a conflict on (student, subject, period) updates the score.
func (repo gradeRepository) UpsertGrades(ctx context.Context, grades []grade.Grade, exec ...core.DBExecutor) ([]grade.Grade, error) {
	saved := make([]grade.Grade, 0, len(grades))
	err := repo.inTx(ctx, exec, func(tx core.DBExecutor) error {
		for _, g := range grades {
			g.ID = uuid.New().String()
			in := repo.boil(g)

			var row gradeRow
			err := tx.QueryRowxContext(ctx, `
				INSERT INTO grade (`+gradeColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (student_id, subject_id, grading_period_id)
				DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at
				RETURNING `+gradeColumns,
				in.ID, in.StudentID, in.SubjectID, in.GradingPeriodID, in.Score, in.CreatedAt, in.UpdatedAt,
			).StructScan(&row)
			if err != nil {
				return trapFKErr(err, "grade", "upserting grade")
			}
			saved = append(saved, repo.unboil(row))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (repo gradeRepository) GetGrade(ctx context.Context, id string, exec ...core.DBExecutor) (grade.Grade, error) {
	if _, err := uuid.Parse(id); err != nil {
		return grade.Grade{}, grade.ErrNotFound
	}
	var row gradeRow
	if err := repo.getExec(exec).GetContext(ctx, &row, "SELECT "+gradeColumns+" FROM grade WHERE id = $1", id); err != nil {
		return grade.Grade{}, trapNoRowsErr(err, grade.ErrNotFound, "finding grade by ID")
	}
	return repo.unboil(row), nil
}

func (repo gradeRepository) DeleteGrade(ctx context.Context, id string, exec ...core.DBExecutor) error {
	cnt, err := deleteByID(ctx, repo.getExec(exec), "grade", []string{id})
	if err != nil {
		return err
	}
	if cnt == 0 {
		return grade.ErrNotFound
	}
	return nil
}
