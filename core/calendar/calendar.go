package calendar

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

// Event types
const (
	TypeHoliday  = "holiday"
	TypeExam     = "exam"
	TypeMeeting  = "meeting"
	TypeDeadline = "deadline"
	TypeEvent    = "event"
	TypeOther    = "other"
)

var (
	ErrNotFound = core.NewNotFoundError("event not found")

	NowFunc = time.Now // mockable
)

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	EventType   string    `json:"event_type"`
	StartDate   string    `json:"start_date"` // YYYY-MM-DD
	EndDate     *string   `json:"end_date"`   // YYYY-MM-DD
	AllDay      bool      `json:"all_day"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type NewEvent struct {
	Title       string  `json:"title" validate:"required,notblank,max=200"`
	Description *string `json:"description"`
	EventType   string  `json:"event_type" validate:"omitempty,oneof=holiday exam meeting deadline event other"`
	StartDate   string  `json:"start_date" validate:"required,date"`
	EndDate     *string `json:"end_date" validate:"omitempty,date"`
	AllDay      *bool   `json:"all_day"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanStringPtr(ne.Description)
	ne.EventType = core.CleanString(ne.EventType, true /* lower */)
	if ne.EventType == "" {
		ne.EventType = TypeEvent
	}
	ne.StartDate = core.CleanString(ne.StartDate)
	ne.EndDate = core.CleanStringPtr(ne.EndDate)
	if err := validate.Struct(ne); err != nil {
		return err
	}
	if ne.EndDate != nil && *ne.EndDate < ne.StartDate {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "end date cannot be before start date"})
	}
	return nil
}

type UpdateEvent NewEvent

func (ue *UpdateEvent) Validate(orig Event, validate *validator.Validate) error {
	if core.CleanString(ue.Title) == "" {
		ue.Title = orig.Title
	}
	if ue.Description == nil {
		ue.Description = orig.Description
	}
	if core.CleanString(ue.EventType) == "" {
		ue.EventType = orig.EventType
	}
	if core.CleanString(ue.StartDate) == "" {
		ue.StartDate = orig.StartDate
	}
	if ue.EndDate == nil {
		ue.EndDate = orig.EndDate
	}
	if ue.AllDay == nil {
		ue.AllDay = &orig.AllDay
	}
	return (*NewEvent)(ue).Validate(validate)
}

// QueryFilter selects events starting within [From, To]; both bounds are optional.
type QueryFilter struct {
	From      string `query:"from" validate:"omitempty,date"`
	To        string `query:"to" validate:"omitempty,date"`
	EventType string `query:"type"`
	Limit     int
}

func (qf *QueryFilter) Validate(validate *validator.Validate) error {
	qf.From = core.CleanString(qf.From)
	qf.To = core.CleanString(qf.To)
	qf.EventType = core.CleanString(qf.EventType, true /* lower */)
	return validate.Struct(qf)
}

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		// QueryEvents returns events ordered by start date.
		QueryEvents(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Event, error)
		GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (Event, error)
		UpdateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		DeleteEvent(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ne NewEvent) (Event, error) {
	now := time.Now().UTC()
	evt := Event{
		Title:       ne.Title,
		Description: ne.Description,
		EventType:   ne.EventType,
		StartDate:   ne.StartDate,
		EndDate:     ne.EndDate,
		AllDay:      ne.AllDay == nil || *ne.AllDay,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateEvent(ctx, evt)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return svc.repo.QueryEvents(ctx, filter)
}

// Upcoming returns the next n events starting today or later.
func (svc *Service) Upcoming(ctx context.Context, n int) ([]Event, error) {
	return svc.repo.QueryEvents(ctx, QueryFilter{From: NowFunc().Format(core.DateLayout), Limit: n})
}

func (svc *Service) Get(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEvent(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig Event, ue UpdateEvent) (Event, error) {
	orig.Title = ue.Title
	orig.Description = ue.Description
	orig.EventType = ue.EventType
	orig.StartDate = ue.StartDate
	orig.EndDate = ue.EndDate
	orig.AllDay = ue.AllDay == nil || *ue.AllDay
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEvent(ctx, orig)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteEvent(ctx, id)
}
