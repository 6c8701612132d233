package subject

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("subject not found")
	ErrCodeExists = errors.New("a subject with this code already exists")
)

// Orderable lists the fields subjects may be ordered by.
var Orderable = []string{"name", "code", "weekly_minutes", "created_at"}

type (
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, code string, excludedIDs []string, exec ...core.DBExecutor) error
		CreateSubject(ctx context.Context, sub Subject, exec ...core.DBExecutor) (Subject, error)
		QuerySubjects(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Subject, error)
		GetSubject(ctx context.Context, id string, exec ...core.DBExecutor) (Subject, error)
		UpdateSubject(ctx context.Context, sub Subject, exec ...core.DBExecutor) (Subject, error)
		DeleteSubjectsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
		CountSubjects(ctx context.Context, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(ctx context.Context, code string, exclSubjects ...Subject) error {
	ids := make([]string, 0, len(exclSubjects))
	for _, s := range exclSubjects {
		ids = append(ids, s.ID)
	}
	if err := svc.repo.CheckCodeUniqueness(ctx, code, ids); err != nil {
		if err == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return errors.Wrap(err, "checking subject uniqueness")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewSubject) (Subject, error) {
	now := time.Now().UTC()
	sub := Subject{
		Name:          ns.Name,
		Code:          ns.Code,
		Description:   ns.Description,
		Color:         ns.Color,
		WeeklyMinutes: ns.WeeklyMinutes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateSubject(ctx, sub)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx, filter, core.AllowedOrderings(ordering, Orderable...))
}

func (svc *Service) Get(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig Subject, us UpdateSubject) (Subject, error) {
	orig.Name = us.Name
	orig.Code = us.Code
	orig.Description = us.Description
	orig.Color = us.Color
	orig.WeeklyMinutes = us.WeeklyMinutes
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubject(ctx, orig)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteSubjectsByID(ctx, ids)
	return err
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountSubjects(ctx)
}
