package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/schedule"
)

const (
	entryColumns = "id, class_id, subject_id, teacher_id, day_of_week, start_time, end_time, room, created_at"
	entrySelect  = `SELECT e.id, e.class_id, e.subject_id, e.teacher_id, e.day_of_week, e.start_time, e.end_time,
	e.room, e.created_at, COALESCE(s.name, '') AS subject_name, COALESCE(t.full_name, '') AS teacher_name
	FROM schedule e
	LEFT JOIN subject s ON s.id = e.subject_id
	LEFT JOIN teacher t ON t.id = e.teacher_id`
	entryInsert = `INSERT INTO schedule (` + entryColumns + `)
	VALUES (:id, :class_id, :subject_id, :teacher_id, :day_of_week, :start_time, :end_time, :room, :created_at)`
)

type entryRow struct {
	ID          string      `db:"id"`
	ClassID     string      `db:"class_id"`
	SubjectID   string      `db:"subject_id"`
	TeacherID   string      `db:"teacher_id"`
	DayOfWeek   int         `db:"day_of_week"`
	StartTime   string      `db:"start_time"`
	EndTime     string      `db:"end_time"`
	Room        null.String `db:"room"`
	CreatedAt   time.Time   `db:"created_at"`
	SubjectName string      `db:"subject_name"`
	TeacherName string      `db:"teacher_name"`
}

type scheduleRepository struct {
	baseRepository
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(exec core.DBExecutor) *scheduleRepository {
	return &scheduleRepository{baseRepository{exec: exec}}
}

func (repo scheduleRepository) boil(e schedule.Entry) entryRow {
	return entryRow{
		ID:        e.ID,
		ClassID:   e.ClassID,
		SubjectID: e.SubjectID,
		TeacherID: e.TeacherID,
		DayOfWeek: int(e.DayOfWeek),
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Room:      null.StringFromPtr(e.Room),
		CreatedAt: e.CreatedAt.UTC(),
	}
}

func (repo scheduleRepository) unboil(row entryRow) schedule.Entry {
	return schedule.Entry{
		ID:          row.ID,
		ClassID:     row.ClassID,
		SubjectID:   row.SubjectID,
		TeacherID:   row.TeacherID,
		DayOfWeek:   schedule.Day(row.DayOfWeek),
		StartTime:   row.StartTime,
		EndTime:     row.EndTime,
		Room:        row.Room.Ptr(),
		CreatedAt:   row.CreatedAt.UTC(),
		SubjectName: row.SubjectName,
		TeacherName: row.TeacherName,
	}
}

func (repo scheduleRepository) ListClassAssignments(ctx context.Context, classID string, exec ...core.DBExecutor) ([]schedule.Assignment, error) {
	if _, err := uuid.Parse(classID); err != nil {
		return []schedule.Assignment{}, nil
	}
	var rows []struct {
		ID            string   `db:"id"`
		TeacherID     string   `db:"teacher_id"`
		SubjectID     string   `db:"subject_id"`
		WeeklyMinutes null.Int `db:"weekly_minutes"`
	}
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT ts.id, ts.teacher_id, ts.subject_id, s.weekly_minutes
		FROM teacher_subject ts
		JOIN subject s ON s.id = ts.subject_id
		WHERE ts.class_id = $1
		ORDER BY ts.created_at ASC, ts.id ASC`, classID)
	if err != nil {
		return nil, errors.Wrap(err, "listing class assignments")
	}

	assignments := make([]schedule.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, schedule.Assignment{
			ID:            row.ID,
			TeacherID:     row.TeacherID,
			SubjectID:     row.SubjectID,
			WeeklyMinutes: row.WeeklyMinutes.Ptr(),
		})
	}
	return assignments, nil
}

func (repo scheduleRepository) QueryEntries(ctx context.Context, filter schedule.EntryFilter, exec ...core.DBExecutor) ([]schedule.Entry, error) {
	var c conditions
	if filter.ClassID != "" {
		if _, err := uuid.Parse(filter.ClassID); err != nil {
			return []schedule.Entry{}, nil
		}
		c.add("e.class_id = ?", filter.ClassID)
	}
	if filter.ExcludeClassID != "" {
		c.add("e.class_id::text <> ?", filter.ExcludeClassID)
	}
	if filter.TeacherIDs != nil {
		if len(filter.TeacherIDs) == 0 {
			return []schedule.Entry{}, nil
		}
		c.add("e.teacher_id::text IN (?)", filter.TeacherIDs)
	}
	if filter.Day != nil {
		c.add("e.day_of_week = ?", int(*filter.Day))
	}
	q, args, err := c.build(entrySelect, " ORDER BY e.day_of_week ASC, e.start_time ASC, e.class_id ASC")
	if err != nil {
		return nil, err
	}

	var rows []entryRow
	if err = repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying schedule entries")
	}
	entries := make([]schedule.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, repo.unboil(row))
	}
	return entries, nil
}

func (repo scheduleRepository) GetEntry(ctx context.Context, id string, exec ...core.DBExecutor) (schedule.Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return schedule.Entry{}, schedule.ErrNotFound
	}
	var row entryRow
	if err := repo.getExec(exec).GetContext(ctx, &row, entrySelect+" WHERE e.id = $1", id); err != nil {
		return schedule.Entry{}, trapNoRowsErr(err, schedule.ErrNotFound, "finding schedule entry by ID")
	}
	return repo.unboil(row), nil
}

func (repo scheduleRepository) CreateEntry(ctx context.Context, e schedule.Entry, exec ...core.DBExecutor) (schedule.Entry, error) {
	e.ID = uuid.New().String()
	if _, err := repo.getExec(exec).NamedExecContext(ctx, entryInsert, repo.boil(e)); err != nil {
		return schedule.Entry{}, trapFKErr(err, "schedule", "inserting schedule entry")
	}
	return repo.GetEntry(ctx, e.ID, exec...)
}

func (repo scheduleRepository) UpdateEntry(ctx context.Context, e schedule.Entry, exec ...core.DBExecutor) (schedule.Entry, error) {
	res, err := repo.getExec(exec).NamedExecContext(ctx, `
		UPDATE schedule SET subject_id = :subject_id, teacher_id = :teacher_id, day_of_week = :day_of_week,
			start_time = :start_time, end_time = :end_time, room = :room
		WHERE id = :id`, repo.boil(e))
	if err != nil {
		return schedule.Entry{}, trapFKErr(err, "schedule", "updating schedule entry")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.Entry{}, schedule.ErrNotFound
	}
	return repo.GetEntry(ctx, e.ID, exec...)
}

func (repo scheduleRepository) DeleteEntry(ctx context.Context, id string, exec ...core.DBExecutor) error {
	cnt, err := deleteByID(ctx, repo.getExec(exec), "schedule", []string{id})
	if err != nil {
		return err
	}
	if cnt == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

func (repo scheduleRepository) DeleteClassEntries(ctx context.Context, classID string, exec ...core.DBExecutor) (int, error) {
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM schedule WHERE class_id = $1", classID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting class schedule")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted rows")
	}
	return int(cnt), nil
}

// ReplaceClassSchedule deletes the class's entries and inserts the given ones in one transaction:
// if an insert fails the delete is rolled back and the previous schedule survives.
func (repo scheduleRepository) ReplaceClassSchedule(ctx context.Context, classID string, entries []schedule.Entry, exec ...core.DBExecutor) ([]schedule.Entry, error) {
	err := repo.inTx(ctx, exec, func(tx core.DBExecutor) error {
		// serializes concurrent regenerations of the same class
		if _, err := tx.ExecContext(ctx, "SELECT 1 FROM class WHERE id = $1 FOR UPDATE", classID); err != nil {
			return errors.Wrap(err, "locking class")
		}
		if _, err := repo.DeleteClassEntries(ctx, classID, tx); err != nil {
			return err
		}
		return repo.bulkInsert(ctx, tx, classID, entries)
	})
	if err != nil {
		return nil, err
	}
	return repo.QueryEntries(ctx, schedule.EntryFilter{ClassID: classID}, exec...)
}

// bulkInsert writes entries with a single multi-row INSERT.
func (repo scheduleRepository) bulkInsert(ctx context.Context, tx core.DBExecutor, classID string, entries []schedule.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]entryRow, 0, len(entries))
	for _, e := range entries {
		e.ID = uuid.New().String()
		e.ClassID = classID
		rows = append(rows, repo.boil(e))
	}
	query, args := entryBulkInsert(rows)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return trapFKErr(err, "schedule", "inserting schedule entries")
	}
	return nil
}

func entryBulkInsert(rows []entryRow) (string, []interface{}) {
	const nCols = 9

	var q strings.Builder
	q.WriteString("INSERT INTO schedule (" + entryColumns + ") VALUES ")
	args := make([]interface{}, 0, nCols*len(rows))
	for i, row := range rows {
		if i > 0 {
			q.WriteString(", ")
		}
		q.WriteString("(")
		for c := 1; c <= nCols; c++ {
			if c > 1 {
				q.WriteString(", ")
			}
			fmt.Fprintf(&q, "$%d", i*nCols+c)
		}
		q.WriteString(")")
		args = append(args, row.ID, row.ClassID, row.SubjectID, row.TeacherID, row.DayOfWeek,
			row.StartTime, row.EndTime, row.Room, row.CreatedAt)
	}
	return q.String(), args
}
