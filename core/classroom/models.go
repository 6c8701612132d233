package classroom

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

// Shifts
const (
	ShiftMorning   = "morning"
	ShiftAfternoon = "afternoon"
	ShiftEvening   = "evening"
	ShiftFull      = "full"
)

type Class struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Year        int     `json:"year"`
	Shift       string  `json:"shift"`
	Level       *string `json:"level"`
	Room        *string `json:"room"`
	MaxCapacity *int    `json:"max_capacity"`
	// TeacherID is the homeroom teacher.
	TeacherID     *string   `json:"teacher_id"`
	EnrolledCount int       `json:"enrolled_count"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

type NewClass struct {
	Name        string  `json:"name" validate:"required,notblank,max=100"`
	Year        int     `json:"year" validate:"required,min=1900,max=3000"`
	Shift       string  `json:"shift" validate:"required,oneof=morning afternoon evening full"`
	Level       *string `json:"level" validate:"omitempty,max=50"`
	Room        *string `json:"room" validate:"omitempty,max=50"`
	MaxCapacity *int    `json:"max_capacity" validate:"omitempty,min=1"`
	TeacherID   *string `json:"teacher_id" validate:"omitempty,uuid"`
}

func (nc *NewClass) clean() {
	nc.Name = core.CleanString(nc.Name)
	nc.Shift = core.CleanString(nc.Shift, true /* lower */)
	nc.Level = core.CleanStringPtr(nc.Level)
	nc.Room = core.CleanStringPtr(nc.Room)
	nc.TeacherID = core.CleanStringPtr(nc.TeacherID)
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.clean()
	return validate.Struct(nc)
}

// UpdateClass defines what information may be provided to modify an existing Class.
type UpdateClass NewClass

func (uc *UpdateClass) Validate(orig Class, validate *validator.Validate) error {
	if core.CleanString(uc.Name) == "" {
		uc.Name = orig.Name
	}
	if uc.Year == 0 {
		uc.Year = orig.Year
	}
	if core.CleanString(uc.Shift) == "" {
		uc.Shift = orig.Shift
	}
	if uc.Level == nil {
		uc.Level = orig.Level
	}
	if uc.Room == nil {
		uc.Room = orig.Room
	}
	if uc.MaxCapacity == nil {
		uc.MaxCapacity = orig.MaxCapacity
	}
	if uc.TeacherID == nil {
		uc.TeacherID = orig.TeacherID
	}
	nc := (*NewClass)(uc)
	return nc.Validate(validate)
}

type QueryFilter struct {
	Search string `query:"search"`
	Year   int    `query:"year"`
	Shift  string `query:"shift"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Shift = core.CleanString(qf.Shift, true /* lower */)
}

// Service

var (
	ErrNotFound = core.NewNotFoundError("class not found")
	ErrFull     = core.NewPreconditionError("class is at full capacity")
)

var Orderable = []string{"name", "year", "shift", "created_at"}

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		QueryClasses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Class, error)
		// GetClass also fills Class.EnrolledCount.
		GetClass(ctx context.Context, id string, exec ...core.DBExecutor) (Class, error)
		UpdateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		DeleteClassesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
		CountClasses(ctx context.Context, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	return svc.repo.CreateClass(ctx, Class{
		Name:        nc.Name,
		Year:        nc.Year,
		Shift:       nc.Shift,
		Level:       nc.Level,
		Room:        nc.Room,
		MaxCapacity: nc.MaxCapacity,
		TeacherID:   nc.TeacherID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, filter, core.AllowedOrderings(ordering, Orderable...))
}

func (svc *Service) Get(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig Class, uc UpdateClass) (Class, error) {
	orig.Name = uc.Name
	orig.Year = uc.Year
	orig.Shift = uc.Shift
	orig.Level = uc.Level
	orig.Room = uc.Room
	orig.MaxCapacity = uc.MaxCapacity
	orig.TeacherID = uc.TeacherID
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, orig)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteClassesByID(ctx, ids)
	return err
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountClasses(ctx)
}

// CheckCapacity fails with ErrFull when the class cannot take one more student.
func (svc *Service) CheckCapacity(ctx context.Context, id string) error {
	cls, err := svc.repo.GetClass(ctx, id)
	if err != nil {
		return err
	}
	if cls.MaxCapacity != nil && cls.EnrolledCount >= *cls.MaxCapacity {
		return ErrFull
	}
	return nil
}
