package student

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

// Statuses
const (
	StatusActive      = "active"
	StatusInactive    = "inactive"
	StatusGraduated   = "graduated"
	StatusTransferred = "transferred"
)

var Statuses = []string{StatusActive, StatusInactive, StatusGraduated, StatusTransferred}

type Student struct {
	ID                 string    `json:"id"`
	FullName           string    `json:"full_name"`
	RegistrationNumber string    `json:"registration_number"`
	Email              *string   `json:"email"`
	Phone              *string   `json:"phone"`
	BirthDate          *string   `json:"birth_date"` // YYYY-MM-DD
	Address            *string   `json:"address"`
	ParentName         *string   `json:"parent_name"`
	ParentEmail        *string   `json:"parent_email"`
	ParentPhone        *string   `json:"parent_phone"`
	ClassID            *string   `json:"class_id"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
}

func (s Student) IsActive() bool {
	return s.Status == StatusActive
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	FullName           string  `json:"full_name" validate:"required,notblank,max=150"`
	RegistrationNumber string  `json:"registration_number" validate:"required,notblank,max=30"`
	Email              *string `json:"email" validate:"omitempty,email"`
	Phone              *string `json:"phone" validate:"omitempty,max=30"`
	BirthDate          *string `json:"birth_date" validate:"omitempty,date"`
	Address            *string `json:"address"`
	ParentName         *string `json:"parent_name" validate:"omitempty,max=150"`
	ParentEmail        *string `json:"parent_email" validate:"omitempty,email"`
	ParentPhone        *string `json:"parent_phone" validate:"omitempty,max=30"`
	ClassID            *string `json:"class_id" validate:"omitempty,uuid"`
	Status             string  `json:"status" validate:"omitempty,oneof=active inactive graduated transferred"`
}

func (ns *NewStudent) clean() {
	ns.FullName = core.CleanString(ns.FullName)
	ns.RegistrationNumber = core.CleanString(ns.RegistrationNumber)
	ns.Email = core.CleanStringPtr(ns.Email, true /* lower */)
	ns.Phone = core.CleanStringPtr(ns.Phone)
	ns.BirthDate = core.CleanStringPtr(ns.BirthDate)
	ns.Address = core.CleanStringPtr(ns.Address)
	ns.ParentName = core.CleanStringPtr(ns.ParentName)
	ns.ParentEmail = core.CleanStringPtr(ns.ParentEmail, true /* lower */)
	ns.ParentPhone = core.CleanStringPtr(ns.ParentPhone)
	ns.ClassID = core.CleanStringPtr(ns.ClassID)
	ns.Status = core.CleanString(ns.Status, true /* lower */)
	if ns.Status == "" {
		ns.Status = StatusActive
	}
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ns.clean()
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ns.RegistrationNumber)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Nil (or blank, for required fields) values keep the current value.
type UpdateStudent NewStudent

func (us *UpdateStudent) Validate(ctx context.Context, orig Student, validate *validator.Validate, svc *Service) error {
	if core.CleanString(us.FullName) == "" {
		us.FullName = orig.FullName
	}
	if core.CleanString(us.RegistrationNumber) == "" {
		us.RegistrationNumber = orig.RegistrationNumber
	}
	if core.CleanString(us.Status) == "" {
		us.Status = orig.Status
	}
	for _, fld := range []struct{ new, orig **string }{
		{&us.Email, &orig.Email},
		{&us.Phone, &orig.Phone},
		{&us.BirthDate, &orig.BirthDate},
		{&us.Address, &orig.Address},
		{&us.ParentName, &orig.ParentName},
		{&us.ParentEmail, &orig.ParentEmail},
		{&us.ParentPhone, &orig.ParentPhone},
		{&us.ClassID, &orig.ClassID},
	} {
		if *fld.new == nil {
			*fld.new = *fld.orig
		}
	}

	ns := (*NewStudent)(us)
	ns.clean()
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, us.RegistrationNumber, orig)
}

type QueryFilter struct {
	Search  string `query:"search"`
	ClassID string `query:"class_id"`
	Status  string `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ClassID = core.CleanString(qf.ClassID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
