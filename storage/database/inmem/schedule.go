package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/schedule"
	"github.com/trezcool/escola/core/teacher"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) ListClassAssignments(_ context.Context, classID string, _ ...core.DBExecutor) ([]schedule.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	rows := make([]teacher.Assignment, 0)
	for _, asg := range repo.db.assignments {
		if strValue(asg.ClassID) == classID {
			rows = append(rows, asg)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})

	assignments := make([]schedule.Assignment, 0, len(rows))
	for _, asg := range rows {
		sub, ok := repo.db.subjects[asg.SubjectID]
		if !ok {
			continue
		}
		assignments = append(assignments, schedule.Assignment{
			ID:            asg.ID,
			TeacherID:     asg.TeacherID,
			SubjectID:     asg.SubjectID,
			WeeklyMinutes: sub.WeeklyMinutes,
		})
	}
	return assignments, nil
}

// withNames fills the subject and teacher names of e. repo.db.mu must be held.
func (repo *scheduleRepository) withNames(e schedule.Entry) schedule.Entry {
	if sub, ok := repo.db.subjects[e.SubjectID]; ok {
		e.SubjectName = sub.Name
	}
	if tch, ok := repo.db.teachers[e.TeacherID]; ok {
		e.TeacherName = tch.FullName
	}
	return e
}

// checkRefs emulates the entry's foreign keys. repo.db.mu must be held.
func (repo *scheduleRepository) checkRefs(e schedule.Entry) error {
	if _, ok := repo.db.classes[e.ClassID]; !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "class not found"})
	}
	if _, ok := repo.db.subjects[e.SubjectID]; !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "subject_id", Error: "subject not found"})
	}
	if _, ok := repo.db.teachers[e.TeacherID]; !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: "teacher not found"})
	}
	return nil
}

func (repo *scheduleRepository) QueryEntries(_ context.Context, filter schedule.EntryFilter, _ ...core.DBExecutor) ([]schedule.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	entries := make([]schedule.Entry, 0)
	for _, e := range repo.db.entries {
		if filter.ClassID != "" && e.ClassID != filter.ClassID {
			continue
		}
		if filter.ExcludeClassID != "" && e.ClassID == filter.ExcludeClassID {
			continue
		}
		if filter.TeacherIDs != nil && !inSlice(e.TeacherID, filter.TeacherIDs) {
			continue
		}
		if filter.Day != nil && e.DayOfWeek != *filter.Day {
			continue
		}
		entries = append(entries, repo.withNames(e))
	}
	sortEntries(entries)
	return entries, nil
}

// sortEntries orders entries by day, start time then class.
func sortEntries(entries []schedule.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ClassID < b.ClassID
	})
}

func (repo *scheduleRepository) GetEntry(_ context.Context, id string, _ ...core.DBExecutor) (schedule.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if e, ok := repo.db.entries[id]; ok {
		return repo.withNames(e), nil
	}
	return schedule.Entry{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) CreateEntry(_ context.Context, e schedule.Entry, _ ...core.DBExecutor) (schedule.Entry, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkRefs(e); err != nil {
		return schedule.Entry{}, err
	}
	e.ID = newID()
	e.SubjectName, e.TeacherName = "", ""
	repo.db.entries[e.ID] = e
	return repo.withNames(e), nil
}

func (repo *scheduleRepository) UpdateEntry(_ context.Context, e schedule.Entry, _ ...core.DBExecutor) (schedule.Entry, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.entries[e.ID]; !ok {
		return schedule.Entry{}, schedule.ErrNotFound
	}
	if err := repo.checkRefs(e); err != nil {
		return schedule.Entry{}, err
	}
	e.SubjectName, e.TeacherName = "", ""
	repo.db.entries[e.ID] = e
	return repo.withNames(e), nil
}

func (repo *scheduleRepository) DeleteEntry(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.entries[id]; !ok {
		return schedule.ErrNotFound
	}
	delete(repo.db.entries, id)
	return nil
}

func (repo *scheduleRepository) DeleteClassEntries(_ context.Context, classID string, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	return repo.deleteClassEntries(classID), nil
}

func (repo *scheduleRepository) deleteClassEntries(classID string) int {
	var cnt int
	for id, e := range repo.db.entries {
		if e.ClassID == classID {
			delete(repo.db.entries, id)
			cnt++
		}
	}
	return cnt
}

// ReplaceClassSchedule swaps the class's entries for the given ones. Every entry is checked before anything
// is removed, so a failure leaves the previous schedule in place.
func (repo *scheduleRepository) ReplaceClassSchedule(_ context.Context, classID string, entries []schedule.Entry, _ ...core.DBExecutor) ([]schedule.Entry, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, e := range entries {
		e.ClassID = classID
		if err := repo.checkRefs(e); err != nil {
			return nil, err
		}
	}

	repo.deleteClassEntries(classID)
	saved := make([]schedule.Entry, 0, len(entries))
	for _, e := range entries {
		e.ID = newID()
		e.ClassID = classID
		e.SubjectName, e.TeacherName = "", ""
		repo.db.entries[e.ID] = e
		saved = append(saved, repo.withNames(e))
	}
	sortEntries(saved)
	return saved, nil
}
