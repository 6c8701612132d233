package teacher

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("teacher not found")
	ErrAssignmentNotFound = core.NewNotFoundError("assignment not found")
	ErrEmailExists        = errors.New("a teacher with this email already exists")
	ErrAssignmentExists   = errors.New("this teacher is already assigned to this subject")
)

var Orderable = []string{"full_name", "email", "status", "hire_date", "created_at"}

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs []string, exec ...core.DBExecutor) error
		// CreateTeacher also stores a class-less assignment per Teacher.SubjectIDs.
		CreateTeacher(ctx context.Context, tch Teacher, exec ...core.DBExecutor) (Teacher, error)
		QueryTeachers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Teacher, error)
		GetTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (Teacher, error)
		// UpdateTeacher replaces the teacher's class-less assignments with Teacher.SubjectIDs.
		UpdateTeacher(ctx context.Context, tch Teacher, exec ...core.DBExecutor) (Teacher, error)
		DeleteTeachersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
		CountTeachers(ctx context.Context, status string, exec ...core.DBExecutor) (int, error)

		CreateAssignment(ctx context.Context, asg Assignment, exec ...core.DBExecutor) (Assignment, error)
		QueryAssignments(ctx context.Context, filter AssignmentFilter, exec ...core.DBExecutor) ([]Assignment, error)
		DeleteAssignment(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(ctx context.Context, email string, exclTeachers ...Teacher) error {
	ids := make([]string, 0, len(exclTeachers))
	for _, t := range exclTeachers {
		ids = append(ids, t.ID)
	}
	if err := svc.repo.CheckEmailUniqueness(ctx, email, ids); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "checking teacher uniqueness")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	now := time.Now().UTC()
	tch := Teacher{
		FullName:      nt.FullName,
		Email:         nt.Email,
		Phone:         nt.Phone,
		Qualification: nt.Qualification,
		HireDate:      nt.HireDate,
		Status:        nt.Status,
		SubjectIDs:    nt.SubjectIDs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if tch.SubjectIDs == nil {
		tch.SubjectIDs = []string{}
	}
	return svc.repo.CreateTeacher(ctx, tch)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Teacher, error) {
	return svc.repo.QueryTeachers(ctx, filter, core.AllowedOrderings(ordering, Orderable...))
}

func (svc *Service) Get(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig Teacher, ut UpdateTeacher) (Teacher, error) {
	orig.FullName = ut.FullName
	orig.Email = ut.Email
	orig.Phone = ut.Phone
	orig.Qualification = ut.Qualification
	orig.HireDate = ut.HireDate
	orig.Status = ut.Status
	orig.SubjectIDs = ut.SubjectIDs
	if orig.SubjectIDs == nil {
		orig.SubjectIDs = []string{}
	}
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTeacher(ctx, orig)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteTeachersByID(ctx, ids)
	return err
}

func (svc *Service) CountActive(ctx context.Context) (int, error) {
	return svc.repo.CountTeachers(ctx, StatusActive)
}

// Assign makes the teacher responsible for the subject in the given class.
func (svc *Service) Assign(ctx context.Context, na NewAssignment) (Assignment, error) {
	asg, err := svc.repo.CreateAssignment(ctx, Assignment{
		TeacherID: na.TeacherID,
		SubjectID: na.SubjectID,
		ClassID:   na.ClassID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrAssignmentExists {
			return Assignment{}, core.NewValidationError(ErrAssignmentExists, core.FieldError{Field: "subject_id", Error: ErrAssignmentExists.Error()})
		}
		return Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return asg, nil
}

func (svc *Service) ListByClass(ctx context.Context, classID string) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, AssignmentFilter{ClassID: classID})
}

func (svc *Service) Unassign(ctx context.Context, id string) error {
	return svc.repo.DeleteAssignment(ctx, id)
}
