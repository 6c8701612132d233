package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/student"
)

var (
	studentColumns = `id, full_name, registration_number, email, phone, birth_date, address,
	parent_name, parent_email, parent_phone, class_id, status, created_at, updated_at`
	studentSelect = `SELECT id, full_name, registration_number, email, phone, ` + dateColumn("birth_date") + `, address,
	parent_name, parent_email, parent_phone, class_id, status, created_at, updated_at FROM student`
)

type studentRow struct {
	ID                 string      `db:"id"`
	FullName           string      `db:"full_name"`
	RegistrationNumber string      `db:"registration_number"`
	Email              null.String `db:"email"`
	Phone              null.String `db:"phone"`
	BirthDate          null.String `db:"birth_date"`
	Address            null.String `db:"address"`
	ParentName         null.String `db:"parent_name"`
	ParentEmail        null.String `db:"parent_email"`
	ParentPhone        null.String `db:"parent_phone"`
	ClassID            null.String `db:"class_id"`
	Status             string      `db:"status"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
}

type studentRepository struct {
	baseRepository
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{baseRepository{exec: exec}}
}

func (repo studentRepository) boil(std student.Student) studentRow {
	return studentRow{
		ID:                 std.ID,
		FullName:           std.FullName,
		RegistrationNumber: std.RegistrationNumber,
		Email:              null.StringFromPtr(std.Email),
		Phone:              null.StringFromPtr(std.Phone),
		BirthDate:          null.StringFromPtr(std.BirthDate),
		Address:            null.StringFromPtr(std.Address),
		ParentName:         null.StringFromPtr(std.ParentName),
		ParentEmail:        null.StringFromPtr(std.ParentEmail),
		ParentPhone:        null.StringFromPtr(std.ParentPhone),
		ClassID:            null.StringFromPtr(std.ClassID),
		Status:             std.Status,
		CreatedAt:          std.CreatedAt.UTC(),
		UpdatedAt:          std.UpdatedAt.UTC(),
	}
}

func (repo studentRepository) unboil(row studentRow) student.Student {
	return student.Student{
		ID:                 row.ID,
		FullName:           row.FullName,
		RegistrationNumber: row.RegistrationNumber,
		Email:              row.Email.Ptr(),
		Phone:              row.Phone.Ptr(),
		BirthDate:          row.BirthDate.Ptr(),
		Address:            row.Address.Ptr(),
		ParentName:         row.ParentName.Ptr(),
		ParentEmail:        row.ParentEmail.Ptr(),
		ParentPhone:        row.ParentPhone.Ptr(),
		ClassID:            row.ClassID.Ptr(),
		Status:             row.Status,
		CreatedAt:          row.CreatedAt.UTC(),
		UpdatedAt:          row.UpdatedAt.UTC(),
	}
}

func (repo studentRepository) CheckRegistrationUniqueness(ctx context.Context, registration string, excludedIDs []string, exec ...core.DBExecutor) error {
	var c conditions
	c.add("registration_number = ?", registration)
	if len(excludedIDs) > 0 {
		c.add("id::text NOT IN (?)", excludedIDs)
	}
	q, args, err := c.build("SELECT EXISTS (SELECT 1 FROM student", ")")
	if err != nil {
		return err
	}

	var exists bool
	if err = repo.getExec(exec).GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking registration number uniqueness")
	}
	if exists {
		return student.ErrRegistrationExists
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	std.ID = uuid.New().String()
	_, err := repo.getExec(exec).NamedExecContext(ctx, `
		INSERT INTO student (`+studentColumns+`)
		VALUES (:id, :full_name, :registration_number, :email, :phone, :birth_date, :address,
			:parent_name, :parent_email, :parent_phone, :class_id, :status, :created_at, :updated_at)`, repo.boil(std))
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrRegistrationExists
		}
		return student.Student{}, trapFKErr(err, "student", "inserting student")
	}
	return std, nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	var c conditions
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			c.add("(full_name ILIKE ? OR registration_number ILIKE ?)", val, val)
		}
		if filter.ClassID != "" {
			if _, err := uuid.Parse(filter.ClassID); err != nil {
				return []student.Student{}, nil
			}
			c.add("class_id = ?", filter.ClassID)
		}
		if filter.Status != "" {
			c.add("status = ?", filter.Status)
		}
	}
	q, args, err := c.build(
		studentSelect,
		orderBy(ordering, "full_name ASC", "full_name", "registration_number", "status", "created_at"))
	if err != nil {
		return nil, err
	}

	var rows []studentRow
	if err = repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, repo.unboil(row))
	}
	return students, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return student.Student{}, student.ErrNotFound
	}
	var row studentRow
	err := repo.getExec(exec).GetContext(ctx, &row, studentSelect+" WHERE id = $1", id)
	if err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student by ID")
	}
	return repo.unboil(row), nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	res, err := repo.getExec(exec).NamedExecContext(ctx, `
		UPDATE student SET full_name = :full_name, registration_number = :registration_number, email = :email,
			phone = :phone, birth_date = :birth_date, address = :address, parent_name = :parent_name,
			parent_email = :parent_email, parent_phone = :parent_phone, class_id = :class_id, status = :status,
			updated_at = :updated_at
		WHERE id = :id`, repo.boil(std))
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrRegistrationExists
		}
		return student.Student{}, trapFKErr(err, "student", "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return std, nil
}

// DeleteStudentsByID relies on ON DELETE CASCADE for grades.
func (repo studentRepository) DeleteStudentsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	return deleteByID(ctx, repo.getExec(exec), "student", ids)
}

func (repo studentRepository) CountStudents(ctx context.Context, status string, exec ...core.DBExecutor) (int, error) {
	var c conditions
	if status != "" {
		c.add("status = ?", status)
	}
	q, args, err := c.build("SELECT COUNT(*) FROM student", "")
	if err != nil {
		return 0, err
	}

	var cnt int
	if err = repo.getExec(exec).GetContext(ctx, &cnt, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return cnt, nil
}
