package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/teacher"
)

type teacherRepository struct {
	db *DB
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *DB) *teacherRepository {
	return &teacherRepository{db: db}
}

// subjectIDs returns the teacher's class-less subjects. repo.db.mu must be held.
func (repo *teacherRepository) subjectIDs(teacherID string) []string {
	ids := make([]string, 0)
	for _, asg := range repo.db.assignments {
		if asg.TeacherID == teacherID && asg.ClassID == nil {
			ids = append(ids, asg.SubjectID)
		}
	}
	sort.Strings(ids)
	return ids
}

// setSubjects replaces the teacher's class-less assignments. repo.db.mu must be held.
func (repo *teacherRepository) setSubjects(tch teacher.Teacher) error {
	for _, sid := range tch.SubjectIDs {
		if _, ok := repo.db.subjects[sid]; !ok {
			return core.NewValidationError(nil, core.FieldError{Field: "subject_ids", Error: "unknown subject " + sid})
		}
	}
	for id, asg := range repo.db.assignments {
		if asg.TeacherID == tch.ID && asg.ClassID == nil {
			delete(repo.db.assignments, id)
		}
	}
	for _, sid := range tch.SubjectIDs {
		id := newID()
		repo.db.assignments[id] = teacher.Assignment{
			ID:        id,
			TeacherID: tch.ID,
			SubjectID: sid,
			CreatedAt: tch.UpdatedAt,
		}
	}
	return nil
}

func (repo *teacherRepository) CheckEmailUniqueness(_ context.Context, email string, excludedIDs []string, _ ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, tch := range repo.db.teachers {
		if tch.Email == email && !inSlice(tch.ID, excludedIDs) {
			return teacher.ErrEmailExists
		}
	}
	return nil
}

func (repo *teacherRepository) CreateTeacher(_ context.Context, tch teacher.Teacher, _ ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	tch.ID = newID()
	if err := repo.setSubjects(tch); err != nil {
		return teacher.Teacher{}, err
	}
	tch.SubjectIDs = repo.subjectIDs(tch.ID)
	repo.db.teachers[tch.ID] = tch
	return tch, nil
}

func (repo *teacherRepository) QueryTeachers(_ context.Context, filter *teacher.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]teacher.Teacher, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	teachers := make([]teacher.Teacher, 0, len(repo.db.teachers))
	for _, tch := range repo.db.teachers {
		tch.SubjectIDs = repo.subjectIDs(tch.ID)
		if filter != nil {
			if filter.Search != "" && !(contains(tch.FullName, filter.Search) || contains(tch.Email, filter.Search)) {
				continue
			}
			if filter.Status != "" && tch.Status != filter.Status {
				continue
			}
			if filter.SubjectID != "" && !inSlice(filter.SubjectID, tch.SubjectIDs) {
				continue
			}
		}
		teachers = append(teachers, tch)
	}
	sortRows(teachers, ordering, core.DBOrdering{Field: "full_name", Ascending: true}, func(i int, field string) interface{} {
		switch field {
		case "full_name":
			return teachers[i].FullName
		case "email":
			return teachers[i].Email
		case "status":
			return teachers[i].Status
		case "hire_date":
			return teachers[i].HireDate
		case "created_at":
			return teachers[i].CreatedAt
		}
		return nil
	})
	return teachers, nil
}

func (repo *teacherRepository) GetTeacher(_ context.Context, id string, _ ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	tch, ok := repo.db.teachers[id]
	if !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	tch.SubjectIDs = repo.subjectIDs(id)
	return tch, nil
}

func (repo *teacherRepository) UpdateTeacher(_ context.Context, tch teacher.Teacher, _ ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.teachers[tch.ID]; !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	if err := repo.setSubjects(tch); err != nil {
		return teacher.Teacher{}, err
	}
	tch.SubjectIDs = repo.subjectIDs(tch.ID)
	repo.db.teachers[tch.ID] = tch
	return tch, nil
}

// DeleteTeachersByID cascades to assignments and schedule entries, and unsets homeroom classes.
func (repo *teacherRepository) DeleteTeachersByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.teachers[id]; !ok {
			continue
		}
		delete(repo.db.teachers, id)
		cnt++

		for aid, asg := range repo.db.assignments {
			if asg.TeacherID == id {
				delete(repo.db.assignments, aid)
			}
		}
		for eid, e := range repo.db.entries {
			if e.TeacherID == id {
				delete(repo.db.entries, eid)
			}
		}
		for cid, cls := range repo.db.classes {
			if strValue(cls.TeacherID) == id {
				cls.TeacherID = nil
				repo.db.classes[cid] = cls
			}
		}
	}
	return cnt, nil
}

func (repo *teacherRepository) CountTeachers(_ context.Context, status string, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var cnt int
	for _, tch := range repo.db.teachers {
		if status == "" || tch.Status == status {
			cnt++
		}
	}
	return cnt, nil
}

func (repo *teacherRepository) CreateAssignment(_ context.Context, asg teacher.Assignment, _ ...core.DBExecutor) (teacher.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.teachers[asg.TeacherID]; !ok {
		return teacher.Assignment{}, core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: teacher.ErrNotFound.Error()})
	}
	if _, ok := repo.db.subjects[asg.SubjectID]; !ok {
		return teacher.Assignment{}, core.NewValidationError(nil, core.FieldError{Field: "subject_id", Error: "subject not found"})
	}
	if asg.ClassID != nil {
		if _, ok := repo.db.classes[*asg.ClassID]; !ok {
			return teacher.Assignment{}, core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "class not found"})
		}
	}
	for _, o := range repo.db.assignments {
		if o.TeacherID == asg.TeacherID && o.SubjectID == asg.SubjectID && strValue(o.ClassID) == strValue(asg.ClassID) {
			return teacher.Assignment{}, teacher.ErrAssignmentExists
		}
	}

	asg.ID = newID()
	repo.db.assignments[asg.ID] = asg
	return asg, nil
}

func (repo *teacherRepository) QueryAssignments(_ context.Context, filter teacher.AssignmentFilter, _ ...core.DBExecutor) ([]teacher.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	assignments := make([]teacher.Assignment, 0)
	for _, asg := range repo.db.assignments {
		if filter.TeacherID != "" && asg.TeacherID != filter.TeacherID {
			continue
		}
		if filter.SubjectID != "" && asg.SubjectID != filter.SubjectID {
			continue
		}
		if filter.ClassID != "" && strValue(asg.ClassID) != filter.ClassID {
			continue
		}
		assignments = append(assignments, asg)
	}
	sortRows(assignments, nil, core.DBOrdering{Field: "created_at", Ascending: true}, func(i int, field string) interface{} {
		return assignments[i].CreatedAt
	})
	return assignments, nil
}

func (repo *teacherRepository) DeleteAssignment(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.assignments[id]; !ok {
		return teacher.ErrAssignmentNotFound
	}
	delete(repo.db.assignments, id)
	return nil
}
