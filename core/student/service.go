package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("student not found")
	ErrRegistrationExists = errors.New("a student with this registration number already exists")
)

var Orderable = []string{"full_name", "registration_number", "status", "created_at"}

type (
	Repository interface {
		CheckRegistrationUniqueness(ctx context.Context, registration string, excludedIDs []string, exec ...core.DBExecutor) error
		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on the name or the registration number.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Student, error)
		GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		UpdateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
		CountStudents(ctx context.Context, status string, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(ctx context.Context, registration string, exclStudents ...Student) error {
	ids := make([]string, 0, len(exclStudents))
	for _, s := range exclStudents {
		ids = append(ids, s.ID)
	}
	if err := svc.repo.CheckRegistrationUniqueness(ctx, registration, ids); err != nil {
		if err == ErrRegistrationExists {
			return core.NewValidationError(err, core.FieldError{Field: "registration_number", Error: err.Error()})
		}
		return errors.Wrap(err, "checking student uniqueness")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	std := Student{
		FullName:           ns.FullName,
		RegistrationNumber: ns.RegistrationNumber,
		Email:              ns.Email,
		Phone:              ns.Phone,
		BirthDate:          ns.BirthDate,
		Address:            ns.Address,
		ParentName:         ns.ParentName,
		ParentEmail:        ns.ParentEmail,
		ParentPhone:        ns.ParentPhone,
		ClassID:            ns.ClassID,
		Status:             ns.Status,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter, core.AllowedOrderings(ordering, Orderable...))
}

// ListByClass returns the class's students ordered by name.
func (svc *Service) ListByClass(ctx context.Context, classID string) ([]Student, error) {
	return svc.repo.QueryStudents(
		ctx,
		&QueryFilter{ClassID: classID},
		[]core.DBOrdering{{Field: "full_name", Ascending: true}},
	)
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig Student, us UpdateStudent) (Student, error) {
	orig.FullName = us.FullName
	orig.RegistrationNumber = us.RegistrationNumber
	orig.Email = us.Email
	orig.Phone = us.Phone
	orig.BirthDate = us.BirthDate
	orig.Address = us.Address
	orig.ParentName = us.ParentName
	orig.ParentEmail = us.ParentEmail
	orig.ParentPhone = us.ParentPhone
	orig.ClassID = us.ClassID
	orig.Status = us.Status
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, orig)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteStudentsByID(ctx, ids)
	return err
}

// CountActive returns the number of active students.
func (svc *Service) CountActive(ctx context.Context) (int, error) {
	return svc.repo.CountStudents(ctx, StatusActive)
}
