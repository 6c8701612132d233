package inmemdb

import (
	"context"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckRegistrationUniqueness(_ context.Context, registration string, excludedIDs []string, _ ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, std := range repo.db.students {
		if std.RegistrationNumber == registration && !inSlice(std.ID, excludedIDs) {
			return student.ErrRegistrationExists
		}
	}
	return nil
}

// checkClass emulates the class foreign key. repo.db.mu must be held.
func (repo *studentRepository) checkClass(std student.Student) error {
	if std.ClassID != nil {
		if _, ok := repo.db.classes[*std.ClassID]; !ok {
			return core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "class not found"})
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkClass(std); err != nil {
		return student.Student{}, err
	}
	std.ID = newID()
	repo.db.students[std.ID] = std
	return std, nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make([]student.Student, 0, len(repo.db.students))
	for _, std := range repo.db.students {
		if filter != nil {
			if filter.Search != "" && !(contains(std.FullName, filter.Search) || contains(std.RegistrationNumber, filter.Search)) {
				continue
			}
			if filter.ClassID != "" && strValue(std.ClassID) != filter.ClassID {
				continue
			}
			if filter.Status != "" && std.Status != filter.Status {
				continue
			}
		}
		students = append(students, std)
	}
	sortRows(students, ordering, core.DBOrdering{Field: "full_name", Ascending: true}, func(i int, field string) interface{} {
		switch field {
		case "full_name":
			return students[i].FullName
		case "registration_number":
			return students[i].RegistrationNumber
		case "status":
			return students[i].Status
		case "created_at":
			return students[i].CreatedAt
		}
		return nil
	})
	return students, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id string, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if std, ok := repo.db.students[id]; ok {
		return std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std student.Student, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.students[std.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	if err := repo.checkClass(std); err != nil {
		return student.Student{}, err
	}
	repo.db.students[std.ID] = std
	return std, nil
}

// DeleteStudentsByID cascades to the students' grades.
func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.students[id]; !ok {
			continue
		}
		delete(repo.db.students, id)
		cnt++
		for gid, g := range repo.db.grades {
			if g.StudentID == id {
				delete(repo.db.grades, gid)
			}
		}
	}
	return cnt, nil
}

func (repo *studentRepository) CountStudents(_ context.Context, status string, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var cnt int
	for _, std := range repo.db.students {
		if status == "" || std.Status == status {
			cnt++
		}
	}
	return cnt, nil
}
