package inmemdb

import (
	"context"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/subject"
)

type subjectRepository struct {
	db *DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *DB) *subjectRepository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) CheckCodeUniqueness(_ context.Context, code string, excludedIDs []string, _ ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, sub := range repo.db.subjects {
		if sub.Code == code && !inSlice(sub.ID, excludedIDs) {
			return subject.ErrCodeExists
		}
	}
	return nil
}

func (repo *subjectRepository) CreateSubject(_ context.Context, sub subject.Subject, _ ...core.DBExecutor) (subject.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sub.ID = newID()
	repo.db.subjects[sub.ID] = sub
	return sub, nil
}

func (repo *subjectRepository) QuerySubjects(_ context.Context, filter *subject.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]subject.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subjects := make([]subject.Subject, 0, len(repo.db.subjects))
	for _, sub := range repo.db.subjects {
		if filter != nil && filter.Search != "" && !(contains(sub.Name, filter.Search) || contains(sub.Code, filter.Search)) {
			continue
		}
		subjects = append(subjects, sub)
	}
	sortRows(subjects, ordering, core.DBOrdering{Field: "name", Ascending: true}, func(i int, field string) interface{} {
		switch field {
		case "name":
			return subjects[i].Name
		case "code":
			return subjects[i].Code
		case "weekly_minutes":
			return subjects[i].WeeklyMinutes
		case "created_at":
			return subjects[i].CreatedAt
		}
		return nil
	})
	return subjects, nil
}

func (repo *subjectRepository) GetSubject(_ context.Context, id string, _ ...core.DBExecutor) (subject.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sub, ok := repo.db.subjects[id]; ok {
		return sub, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) UpdateSubject(_ context.Context, sub subject.Subject, _ ...core.DBExecutor) (subject.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.subjects[sub.ID]; !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	repo.db.subjects[sub.ID] = sub
	return sub, nil
}

// DeleteSubjectsByID cascades to assignments, schedule entries and grades of the subjects.
func (repo *subjectRepository) DeleteSubjectsByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.subjects[id]; !ok {
			continue
		}
		delete(repo.db.subjects, id)
		cnt++

		for aid, asg := range repo.db.assignments {
			if asg.SubjectID == id {
				delete(repo.db.assignments, aid)
			}
		}
		for eid, e := range repo.db.entries {
			if e.SubjectID == id {
				delete(repo.db.entries, eid)
			}
		}
		for gid, g := range repo.db.grades {
			if g.SubjectID == id {
				delete(repo.db.grades, gid)
			}
		}
	}
	return cnt, nil
}

func (repo *subjectRepository) CountSubjects(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.subjects), nil
}
