package inmemdb

import (
	"context"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/classroom"
)

type classRepository struct {
	db *DB
}

var _ classroom.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) *classRepository {
	return &classRepository{db: db}
}

// withCount fills cls.EnrolledCount. repo.db.mu must be held.
func (repo *classRepository) withCount(cls classroom.Class) classroom.Class {
	cls.EnrolledCount = 0
	for _, std := range repo.db.students {
		if strValue(std.ClassID) == cls.ID {
			cls.EnrolledCount++
		}
	}
	return cls
}

func (repo *classRepository) checkTeacher(cls classroom.Class) error {
	if cls.TeacherID != nil {
		if _, ok := repo.db.teachers[*cls.TeacherID]; !ok {
			return core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: "teacher not found"})
		}
	}
	return nil
}

func (repo *classRepository) CreateClass(_ context.Context, cls classroom.Class, _ ...core.DBExecutor) (classroom.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkTeacher(cls); err != nil {
		return classroom.Class{}, err
	}
	cls.ID = newID()
	cls.EnrolledCount = 0
	repo.db.classes[cls.ID] = cls
	return cls, nil
}

func (repo *classRepository) QueryClasses(_ context.Context, filter *classroom.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]classroom.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	classes := make([]classroom.Class, 0, len(repo.db.classes))
	for _, cls := range repo.db.classes {
		if filter != nil {
			if filter.Search != "" && !(contains(cls.Name, filter.Search) || contains(strValue(cls.Room), filter.Search)) {
				continue
			}
			if filter.Year != 0 && cls.Year != filter.Year {
				continue
			}
			if filter.Shift != "" && cls.Shift != filter.Shift {
				continue
			}
		}
		classes = append(classes, repo.withCount(cls))
	}
	sortRows(classes, ordering, core.DBOrdering{Field: "name", Ascending: true}, func(i int, field string) interface{} {
		switch field {
		case "name":
			return classes[i].Name
		case "year":
			return classes[i].Year
		case "shift":
			return classes[i].Shift
		case "created_at":
			return classes[i].CreatedAt
		}
		return nil
	})
	return classes, nil
}

func (repo *classRepository) GetClass(_ context.Context, id string, _ ...core.DBExecutor) (classroom.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return repo.withCount(cls), nil
	}
	return classroom.Class{}, classroom.ErrNotFound
}

func (repo *classRepository) UpdateClass(_ context.Context, cls classroom.Class, _ ...core.DBExecutor) (classroom.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.classes[cls.ID]; !ok {
		return classroom.Class{}, classroom.ErrNotFound
	}
	if err := repo.checkTeacher(cls); err != nil {
		return classroom.Class{}, err
	}
	cls = repo.withCount(cls)
	repo.db.classes[cls.ID] = cls
	return cls, nil
}

// DeleteClassesByID cascades to the classes' assignments and schedule entries and unenrolls their students.
func (repo *classRepository) DeleteClassesByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.classes[id]; !ok {
			continue
		}
		delete(repo.db.classes, id)
		cnt++

		for aid, asg := range repo.db.assignments {
			if strValue(asg.ClassID) == id {
				delete(repo.db.assignments, aid)
			}
		}
		for eid, e := range repo.db.entries {
			if e.ClassID == id {
				delete(repo.db.entries, eid)
			}
		}
		for sid, std := range repo.db.students {
			if strValue(std.ClassID) == id {
				std.ClassID = nil
				repo.db.students[sid] = std
			}
		}
	}
	return cnt, nil
}

func (repo *classRepository) CountClasses(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.classes), nil
}
