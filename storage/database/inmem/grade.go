package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) QueryGradingPeriods(_ context.Context, filter grade.PeriodFilter, _ ...core.DBExecutor) ([]grade.GradingPeriod, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	periods := make([]grade.GradingPeriod, 0)
	for _, p := range repo.db.periods {
		if filter.Year != 0 && p.AcademicYear != filter.Year {
			continue
		}
		if filter.PeriodType != "" && p.PeriodType != filter.PeriodType {
			continue
		}
		periods = append(periods, p)
	}
	sort.SliceStable(periods, func(i, j int) bool {
		a, b := periods[i], periods[j]
		if a.AcademicYear != b.AcademicYear {
			return a.AcademicYear < b.AcademicYear
		}
		if a.PeriodType != b.PeriodType {
			return a.PeriodType < b.PeriodType
		}
		return a.PeriodNumber < b.PeriodNumber
	})
	return periods, nil
}

func (repo *gradeRepository) CreateGradingPeriods(_ context.Context, periods []grade.GradingPeriod, _ ...core.DBExecutor) ([]grade.GradingPeriod, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, p := range periods {
		for _, o := range repo.db.periods {
			if o.AcademicYear == p.AcademicYear && o.PeriodType == p.PeriodType && o.PeriodNumber == p.PeriodNumber {
				return nil, core.NewValidationError(nil, core.FieldError{Field: "period_number", Error: "grading period already exists"})
			}
		}
	}

	created := make([]grade.GradingPeriod, 0, len(periods))
	for _, p := range periods {
		p.ID = newID()
		repo.db.periods[p.ID] = p
		created = append(created, p)
	}
	return created, nil
}

func (repo *gradeRepository) QueryGrades(_ context.Context, filter grade.GradeFilter, _ ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	grades := make([]grade.Grade, 0)
	for _, g := range repo.db.grades {
		if filter.SubjectID != "" && g.SubjectID != filter.SubjectID {
			continue
		}
		if filter.StudentIDs != nil && !inSlice(g.StudentID, filter.StudentIDs) {
			continue
		}
		if filter.PeriodIDs != nil && !inSlice(g.GradingPeriodID, filter.PeriodIDs) {
			continue
		}
		grades = append(grades, g)
	}
	sortRows(grades, nil, core.DBOrdering{Field: "created_at", Ascending: true}, func(i int, _ string) interface{} {
		return grades[i].CreatedAt
	})
	return grades, nil
}

// checkRefs emulates the grade's foreign keys. repo.db.mu must be held.
func (repo *gradeRepository) checkRefs(g grade.Grade) error {
	if _, ok := repo.db.students[g.StudentID]; !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "student not found"})
	}
	if _, ok := repo.db.subjects[g.SubjectID]; !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "subject_id", Error: "subject not found"})
	}
	if _, ok := repo.db.periods[g.GradingPeriodID]; !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "grading_period_id", Error: "grading period not found"})
	}
	return nil
}

func (repo *gradeRepository) UpsertGrades(_ context.Context, grades []grade.Grade, _ ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, g := range grades {
		if err := repo.checkRefs(g); err != nil {
			return nil, err
		}
	}

	saved := make([]grade.Grade, 0, len(grades))
	for _, g := range grades {
		var found bool
		for id, o := range repo.db.grades {
			if o.StudentID == g.StudentID && o.SubjectID == g.SubjectID && o.GradingPeriodID == g.GradingPeriodID {
				o.Score = g.Score
				o.UpdatedAt = g.UpdatedAt
				repo.db.grades[id] = o
				saved = append(saved, o)
				found = true
				break
			}
		}
		if !found {
			g.ID = newID()
			repo.db.grades[g.ID] = g
			saved = append(saved, g)
		}
	}
	return saved, nil
}

func (repo *gradeRepository) GetGrade(_ context.Context, id string, _ ...core.DBExecutor) (grade.Grade, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if g, ok := repo.db.grades[id]; ok {
		return g, nil
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) DeleteGrade(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.grades[id]; !ok {
		return grade.ErrNotFound
	}
	delete(repo.db.grades, id)
	return nil
}
