package subject

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

type Subject struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	// WeeklyMinutes is the expected teaching time per week; it drives the number of scheduled periods.
	WeeklyMinutes *int      `json:"weekly_minutes"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Name          string  `json:"name" validate:"required,notblank,max=120"`
	Code          string  `json:"code" validate:"required,notblank,max=20"`
	Description   *string `json:"description"`
	Color         *string `json:"color" validate:"omitempty,hexcolor"`
	WeeklyMinutes *int    `json:"weekly_minutes" validate:"omitempty,min=0,max=3000"`
}

func (ns *NewSubject) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code)
	ns.Description = core.CleanStringPtr(ns.Description)
	ns.Color = core.CleanStringPtr(ns.Color, true /* lower */)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ns.Code)
}

// UpdateSubject defines what information may be provided to modify an existing Subject.
// Blank fields keep their current value.
type UpdateSubject struct {
	Name          string  `json:"name" validate:"max=120"`
	Code          string  `json:"code" validate:"max=20"`
	Description   *string `json:"description"`
	Color         *string `json:"color" validate:"omitempty,hexcolor"`
	WeeklyMinutes *int    `json:"weekly_minutes" validate:"omitempty,min=0,max=3000"`
}

func (us *UpdateSubject) Validate(ctx context.Context, orig Subject, validate *validator.Validate, svc *Service) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if code := core.CleanString(us.Code); code != "" {
		us.Code = code
	} else {
		us.Code = orig.Code
	}
	if us.Description == nil {
		us.Description = orig.Description
	}
	us.Description = core.CleanStringPtr(us.Description)
	if us.Color == nil {
		us.Color = orig.Color
	}
	us.Color = core.CleanStringPtr(us.Color, true /* lower */)
	if us.WeeklyMinutes == nil {
		us.WeeklyMinutes = orig.WeeklyMinutes
	}

	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, us.Code, orig)
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
