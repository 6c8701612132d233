package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/classroom"
)

const (
	classColumns = "id, name, year, shift, level, room, max_capacity, teacher_id, created_at, updated_at"
	classSelect  = `SELECT c.id, c.name, c.year, c.shift, c.level, c.room, c.max_capacity, c.teacher_id,
	c.created_at, c.updated_at, (SELECT COUNT(*) FROM student s WHERE s.class_id = c.id) AS enrolled_count
	FROM class c`
)

type classRow struct {
	ID            string      `db:"id"`
	Name          string      `db:"name"`
	Year          int         `db:"year"`
	Shift         string      `db:"shift"`
	Level         null.String `db:"level"`
	Room          null.String `db:"room"`
	MaxCapacity   null.Int    `db:"max_capacity"`
	TeacherID     null.String `db:"teacher_id"`
	EnrolledCount int         `db:"enrolled_count"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

type classRepository struct {
	baseRepository
}

var _ classroom.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(exec core.DBExecutor) *classRepository {
	return &classRepository{baseRepository{exec: exec}}
}

func (repo classRepository) boil(cls classroom.Class) classRow {
	return classRow{
		ID:            cls.ID,
		Name:          cls.Name,
		Year:          cls.Year,
		Shift:         cls.Shift,
		Level:         null.StringFromPtr(cls.Level),
		Room:          null.StringFromPtr(cls.Room),
		MaxCapacity:   null.IntFromPtr(cls.MaxCapacity),
		TeacherID:     null.StringFromPtr(cls.TeacherID),
		EnrolledCount: cls.EnrolledCount,
		CreatedAt:     cls.CreatedAt.UTC(),
		UpdatedAt:     cls.UpdatedAt.UTC(),
	}
}

func (repo classRepository) unboil(row classRow) classroom.Class {
	return classroom.Class{
		ID:            row.ID,
		Name:          row.Name,
		Year:          row.Year,
		Shift:         row.Shift,
		Level:         row.Level.Ptr(),
		Room:          row.Room.Ptr(),
		MaxCapacity:   row.MaxCapacity.Ptr(),
		TeacherID:     row.TeacherID.Ptr(),
		EnrolledCount: row.EnrolledCount,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

func (repo classRepository) CreateClass(ctx context.Context, cls classroom.Class, exec ...core.DBExecutor) (classroom.Class, error) {
	cls.ID = uuid.New().String()
	cls.EnrolledCount = 0
	_, err := repo.getExec(exec).NamedExecContext(ctx, `
		INSERT INTO class (`+classColumns+`)
		VALUES (:id, :name, :year, :shift, :level, :room, :max_capacity, :teacher_id, :created_at, :updated_at)`,
		repo.boil(cls))
	if err != nil {
		return classroom.Class{}, trapFKErr(err, "class", "inserting class")
	}
	return cls, nil
}

func (repo classRepository) QueryClasses(ctx context.Context, filter *classroom.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]classroom.Class, error) {
	var c conditions
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			c.add("(c.name ILIKE ? OR c.room ILIKE ?)", val, val)
		}
		if filter.Year != 0 {
			c.add("c.year = ?", filter.Year)
		}
		if filter.Shift != "" {
			c.add("c.shift = ?", filter.Shift)
		}
	}
	q, args, err := c.build(classSelect, orderBy(ordering, "c.name ASC", "name", "year", "shift", "created_at"))
	if err != nil {
		return nil, err
	}

	var rows []classRow
	if err = repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]classroom.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, repo.unboil(row))
	}
	return classes, nil
}

func (repo classRepository) GetClass(ctx context.Context, id string, exec ...core.DBExecutor) (classroom.Class, error) {
	if _, err := uuid.Parse(id); err != nil {
		return classroom.Class{}, classroom.ErrNotFound
	}
	var row classRow
	if err := repo.getExec(exec).GetContext(ctx, &row, classSelect+" WHERE c.id = $1", id); err != nil {
		return classroom.Class{}, trapNoRowsErr(err, classroom.ErrNotFound, "finding class by ID")
	}
	return repo.unboil(row), nil
}

func (repo classRepository) UpdateClass(ctx context.Context, cls classroom.Class, exec ...core.DBExecutor) (classroom.Class, error) {
	res, err := repo.getExec(exec).NamedExecContext(ctx, `
		UPDATE class SET name = :name, year = :year, shift = :shift, level = :level, room = :room,
			max_capacity = :max_capacity, teacher_id = :teacher_id, updated_at = :updated_at
		WHERE id = :id`, repo.boil(cls))
	if err != nil {
		return classroom.Class{}, trapFKErr(err, "class", "updating class")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return classroom.Class{}, classroom.ErrNotFound
	}
	return repo.GetClass(ctx, cls.ID, exec...)
}

// DeleteClassesByID relies on the schema: assignments and schedule entries cascade, students are unenrolled.
func (repo classRepository) DeleteClassesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	return deleteByID(ctx, repo.getExec(exec), "class", ids)
}

func (repo classRepository) CountClasses(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var cnt int
	if err := repo.getExec(exec).GetContext(ctx, &cnt, "SELECT COUNT(*) FROM class"); err != nil {
		return 0, errors.Wrap(err, "counting classes")
	}
	return cnt, nil
}
