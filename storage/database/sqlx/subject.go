package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/subject"
)

const subjectColumns = "id, name, code, description, color, weekly_minutes, created_at, updated_at"

type subjectRow struct {
	ID            string      `db:"id"`
	Name          string      `db:"name"`
	Code          string      `db:"code"`
	Description   null.String `db:"description"`
	Color         null.String `db:"color"`
	WeeklyMinutes null.Int    `db:"weekly_minutes"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

type subjectRepository struct {
	baseRepository
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(exec core.DBExecutor) *subjectRepository {
	return &subjectRepository{baseRepository{exec: exec}}
}

func (repo subjectRepository) boil(sub subject.Subject) subjectRow {
	return subjectRow{
		ID:            sub.ID,
		Name:          sub.Name,
		Code:          sub.Code,
		Description:   null.StringFromPtr(sub.Description),
		Color:         null.StringFromPtr(sub.Color),
		WeeklyMinutes: null.IntFromPtr(sub.WeeklyMinutes),
		CreatedAt:     sub.CreatedAt.UTC(),
		UpdatedAt:     sub.UpdatedAt.UTC(),
	}
}

func (repo subjectRepository) unboil(row subjectRow) subject.Subject {
	return subject.Subject{
		ID:            row.ID,
		Name:          row.Name,
		Code:          row.Code,
		Description:   row.Description.Ptr(),
		Color:         row.Color.Ptr(),
		WeeklyMinutes: row.WeeklyMinutes.Ptr(),
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

func (repo subjectRepository) CheckCodeUniqueness(ctx context.Context, code string, excludedIDs []string, exec ...core.DBExecutor) error {
	var c conditions
	c.add("code = ?", code)
	if len(excludedIDs) > 0 {
		c.add("id::text NOT IN (?)", excludedIDs)
	}
	q, args, err := c.build("SELECT EXISTS (SELECT 1 FROM subject", ")")
	if err != nil {
		return err
	}

	var exists bool
	if err = repo.getExec(exec).GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking subject code uniqueness")
	}
	if exists {
		return subject.ErrCodeExists
	}
	return nil
}

func (repo subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject, exec ...core.DBExecutor) (subject.Subject, error) {
	sub.ID = uuid.New().String()
	row := repo.boil(sub)
	_, err := repo.getExec(exec).NamedExecContext(ctx, `
		INSERT INTO subject (`+subjectColumns+`)
		VALUES (:id, :name, :code, :description, :color, :weekly_minutes, :created_at, :updated_at)`, row)
	if err != nil {
		if isUniqueViolation(err) {
			return subject.Subject{}, subject.ErrCodeExists
		}
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return repo.unboil(row), nil
}

func (repo subjectRepository) QuerySubjects(ctx context.Context, filter *subject.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]subject.Subject, error) {
	var c conditions
	if filter != nil && filter.Search != "" {
		val := "%" + filter.Search + "%"
		c.add("(name ILIKE ? OR code ILIKE ?)", val, val)
	}
	q, args, err := c.build(
		"SELECT "+subjectColumns+" FROM subject",
		orderBy(ordering, "name ASC", "name", "code", "weekly_minutes", "created_at"))
	if err != nil {
		return nil, err
	}

	var rows []subjectRow
	if err = repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]subject.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, repo.unboil(row))
	}
	return subjects, nil
}

func (repo subjectRepository) GetSubject(ctx context.Context, id string, exec ...core.DBExecutor) (subject.Subject, error) {
	if _, err := uuid.Parse(id); err != nil {
		return subject.Subject{}, subject.ErrNotFound
	}
	var row subjectRow
	err := repo.getExec(exec).GetContext(ctx, &row, "SELECT "+subjectColumns+" FROM subject WHERE id = $1", id)
	if err != nil {
		return subject.Subject{}, trapNoRowsErr(err, subject.ErrNotFound, "finding subject by ID")
	}
	return repo.unboil(row), nil
}

func (repo subjectRepository) UpdateSubject(ctx context.Context, sub subject.Subject, exec ...core.DBExecutor) (subject.Subject, error) {
	row := repo.boil(sub)
	res, err := repo.getExec(exec).NamedExecContext(ctx, `
		UPDATE subject SET name = :name, code = :code, description = :description, color = :color,
			weekly_minutes = :weekly_minutes, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		if isUniqueViolation(err) {
			return subject.Subject{}, subject.ErrCodeExists
		}
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	return repo.unboil(row), nil
}

// DeleteSubjectsByID relies on ON DELETE CASCADE for assignments, schedule entries and grades.
func (repo subjectRepository) DeleteSubjectsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	return deleteByID(ctx, repo.getExec(exec), "subject", ids)
}

func (repo subjectRepository) CountSubjects(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var cnt int
	if err := repo.getExec(exec).GetContext(ctx, &cnt, "SELECT COUNT(*) FROM subject"); err != nil {
		return 0, errors.Wrap(err, "counting subjects")
	}
	return cnt, nil
}
