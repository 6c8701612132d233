package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/teacher"
)

var (
	teacherColumns = "id, full_name, email, phone, qualification, hire_date, status, created_at, updated_at"
	teacherSelect  = `SELECT t.id, t.full_name, t.email, t.phone, t.qualification, ` + dateColumn("t.hire_date") + `,
	t.status, t.created_at, t.updated_at,
	ARRAY(
		SELECT ts.subject_id::text FROM teacher_subject ts
		WHERE ts.teacher_id = t.id AND ts.class_id IS NULL ORDER BY ts.subject_id
	) AS subject_ids
	FROM teacher t`
	assignmentColumns = "id, teacher_id, subject_id, class_id, created_at"
)

type (
	teacherRow struct {
		ID            string         `db:"id"`
		FullName      string         `db:"full_name"`
		Email         string         `db:"email"`
		Phone         null.String    `db:"phone"`
		Qualification null.String    `db:"qualification"`
		HireDate      null.String    `db:"hire_date"`
		Status        string         `db:"status"`
		SubjectIDs    pq.StringArray `db:"subject_ids"`
		CreatedAt     time.Time      `db:"created_at"`
		UpdatedAt     time.Time      `db:"updated_at"`
	}

	assignmentRow struct {
		ID        string      `db:"id"`
		TeacherID string      `db:"teacher_id"`
		SubjectID string      `db:"subject_id"`
		ClassID   null.String `db:"class_id"`
		CreatedAt time.Time   `db:"created_at"`
	}
)

type teacherRepository struct {
	baseRepository
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(exec core.DBExecutor) *teacherRepository {
	return &teacherRepository{baseRepository{exec: exec}}
}

func (repo teacherRepository) boil(tch teacher.Teacher) teacherRow {
	return teacherRow{
		ID:            tch.ID,
		FullName:      tch.FullName,
		Email:         tch.Email,
		Phone:         null.StringFromPtr(tch.Phone),
		Qualification: null.StringFromPtr(tch.Qualification),
		HireDate:      null.StringFromPtr(tch.HireDate),
		Status:        tch.Status,
		SubjectIDs:    tch.SubjectIDs,
		CreatedAt:     tch.CreatedAt.UTC(),
		UpdatedAt:     tch.UpdatedAt.UTC(),
	}
}

func (repo teacherRepository) unboil(row teacherRow) teacher.Teacher {
	ids := []string(row.SubjectIDs)
	if ids == nil {
		ids = []string{}
	}
	return teacher.Teacher{
		ID:            row.ID,
		FullName:      row.FullName,
		Email:         row.Email,
		Phone:         row.Phone.Ptr(),
		Qualification: row.Qualification.Ptr(),
		HireDate:      row.HireDate.Ptr(),
		Status:        row.Status,
		SubjectIDs:    ids,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

func (repo teacherRepository) unboilAssignment(row assignmentRow) teacher.Assignment {
	return teacher.Assignment{
		ID:        row.ID,
		TeacherID: row.TeacherID,
		SubjectID: row.SubjectID,
		ClassID:   row.ClassID.Ptr(),
		CreatedAt: row.CreatedAt.UTC(),
	}
}

// setSubjects replaces the teacher's class-less assignments.
func (repo teacherRepository) setSubjects(ctx context.Context, exec core.DBExecutor, tch teacher.Teacher) error {
	_, err := exec.ExecContext(ctx, "DELETE FROM teacher_subject WHERE teacher_id = $1 AND class_id IS NULL", tch.ID)
	if err != nil {
		return errors.Wrap(err, "clearing teacher subjects")
	}
	for _, sid := range tch.SubjectIDs {
		row := assignmentRow{
			ID:        uuid.New().String(),
			TeacherID: tch.ID,
			SubjectID: sid,
			CreatedAt: tch.UpdatedAt.UTC(),
		}
		_, err = exec.NamedExecContext(ctx, `
			INSERT INTO teacher_subject (`+assignmentColumns+`)
			VALUES (:id, :teacher_id, :subject_id, :class_id, :created_at)`, row)
		if err != nil {
			if code, _ := pqCode(err); code == foreignKeyViolation {
				return core.NewValidationError(err, core.FieldError{Field: "subject_ids", Error: "unknown subject " + sid})
			}
			return errors.Wrap(err, "inserting teacher subject")
		}
	}
	return nil
}

func (repo teacherRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs []string, exec ...core.DBExecutor) error {
	var c conditions
	c.add("email = ?", email)
	if len(excludedIDs) > 0 {
		c.add("id::text NOT IN (?)", excludedIDs)
	}
	q, args, err := c.build("SELECT EXISTS (SELECT 1 FROM teacher", ")")
	if err != nil {
		return err
	}

	var exists bool
	if err = repo.getExec(exec).GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking teacher email uniqueness")
	}
	if exists {
		return teacher.ErrEmailExists
	}
	return nil
}

func (repo teacherRepository) CreateTeacher(ctx context.Context, tch teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	tch.ID = uuid.New().String()
	err := repo.inTx(ctx, exec, func(tx core.DBExecutor) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO teacher (`+teacherColumns+`)
			VALUES (:id, :full_name, :email, :phone, :qualification, :hire_date, :status, :created_at, :updated_at)`,
			repo.boil(tch))
		if err != nil {
			if isUniqueViolation(err) {
				return teacher.ErrEmailExists
			}
			return errors.Wrap(err, "inserting teacher")
		}
		return repo.setSubjects(ctx, tx, tch)
	})
	if err != nil {
		return teacher.Teacher{}, err
	}
	return repo.GetTeacher(ctx, tch.ID, exec...)
}

func (repo teacherRepository) QueryTeachers(ctx context.Context, filter *teacher.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]teacher.Teacher, error) {
	var c conditions
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			c.add("(t.full_name ILIKE ? OR t.email ILIKE ?)", val, val)
		}
		if filter.Status != "" {
			c.add("t.status = ?", filter.Status)
		}
		if filter.SubjectID != "" {
			if _, err := uuid.Parse(filter.SubjectID); err != nil {
				return []teacher.Teacher{}, nil
			}
			c.add("t.id IN (SELECT teacher_id FROM teacher_subject WHERE subject_id = ? AND class_id IS NULL)", filter.SubjectID)
		}
	}
	q, args, err := c.build(teacherSelect, orderBy(ordering, "t.full_name ASC", "full_name", "email", "status", "hire_date", "created_at"))
	if err != nil {
		return nil, err
	}

	var rows []teacherRow
	if err = repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]teacher.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, repo.unboil(row))
	}
	return teachers, nil
}

func (repo teacherRepository) GetTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (teacher.Teacher, error) {
	if _, err := uuid.Parse(id); err != nil {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	var row teacherRow
	if err := repo.getExec(exec).GetContext(ctx, &row, teacherSelect+" WHERE t.id = $1", id); err != nil {
		return teacher.Teacher{}, trapNoRowsErr(err, teacher.ErrNotFound, "finding teacher by ID")
	}
	return repo.unboil(row), nil
}

func (repo teacherRepository) UpdateTeacher(ctx context.Context, tch teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	err := repo.inTx(ctx, exec, func(tx core.DBExecutor) error {
		res, err := tx.NamedExecContext(ctx, `
			UPDATE teacher SET full_name = :full_name, email = :email, phone = :phone,
				qualification = :qualification, hire_date = :hire_date, status = :status, updated_at = :updated_at
			WHERE id = :id`, repo.boil(tch))
		if err != nil {
			if isUniqueViolation(err) {
				return teacher.ErrEmailExists
			}
			return errors.Wrap(err, "updating teacher")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return teacher.ErrNotFound
		}
		return repo.setSubjects(ctx, tx, tch)
	})
	if err != nil {
		return teacher.Teacher{}, err
	}
	return repo.GetTeacher(ctx, tch.ID, exec...)
}

// DeleteTeachersByID relies on the schema: assignments and schedule entries cascade, homeroom classes are unset.
func (repo teacherRepository) DeleteTeachersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	return deleteByID(ctx, repo.getExec(exec), "teacher", ids)
}

func (repo teacherRepository) CountTeachers(ctx context.Context, status string, exec ...core.DBExecutor) (int, error) {
	var c conditions
	if status != "" {
		c.add("status = ?", status)
	}
	q, args, err := c.build("SELECT COUNT(*) FROM teacher", "")
	if err != nil {
		return 0, err
	}

	var cnt int
	if err = repo.getExec(exec).GetContext(ctx, &cnt, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting teachers")
	}
	return cnt, nil
}

func (repo teacherRepository) CreateAssignment(ctx context.Context, asg teacher.Assignment, exec ...core.DBExecutor) (teacher.Assignment, error) {
	row := assignmentRow{
		ID:        uuid.New().String(),
		TeacherID: asg.TeacherID,
		SubjectID: asg.SubjectID,
		ClassID:   null.StringFromPtr(asg.ClassID),
		CreatedAt: asg.CreatedAt.UTC(),
	}
	_, err := repo.getExec(exec).NamedExecContext(ctx, `
		INSERT INTO teacher_subject (`+assignmentColumns+`)
		VALUES (:id, :teacher_id, :subject_id, :class_id, :created_at)`, row)
	if err != nil {
		if isUniqueViolation(err) {
			return teacher.Assignment{}, teacher.ErrAssignmentExists
		}
		return teacher.Assignment{}, trapFKErr(err, "teacher_subject", "inserting assignment")
	}
	return repo.unboilAssignment(row), nil
}

func (repo teacherRepository) QueryAssignments(ctx context.Context, filter teacher.AssignmentFilter, exec ...core.DBExecutor) ([]teacher.Assignment, error) {
	var c conditions
	for col, val := range map[string]string{"teacher_id": filter.TeacherID, "subject_id": filter.SubjectID, "class_id": filter.ClassID} {
		if val == "" {
			continue
		}
		if _, err := uuid.Parse(val); err != nil {
			return []teacher.Assignment{}, nil
		}
		c.add(col+" = ?", val)
	}
	q, args, err := c.build("SELECT "+assignmentColumns+" FROM teacher_subject", " ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, err
	}

	var rows []assignmentRow
	if err = repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	assignments := make([]teacher.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, repo.unboilAssignment(row))
	}
	return assignments, nil
}

func (repo teacherRepository) DeleteAssignment(ctx context.Context, id string, exec ...core.DBExecutor) error {
	cnt, err := deleteByID(ctx, repo.getExec(exec), "teacher_subject", []string{id})
	if err != nil {
		return err
	}
	if cnt == 0 {
		return teacher.ErrAssignmentNotFound
	}
	return nil
}
