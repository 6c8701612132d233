package teacher

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Teacher struct {
	ID            string  `json:"id"`
	FullName      string  `json:"full_name"`
	Email         string  `json:"email"`
	Phone         *string `json:"phone"`
	Qualification *string `json:"qualification"`
	HireDate      *string `json:"hire_date"` // YYYY-MM-DD
	Status        string  `json:"status"`
	// SubjectIDs lists the subjects the teacher is qualified for (class-less assignments).
	SubjectIDs []string  `json:"subject_ids"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// Assignment makes a teacher responsible for a subject, optionally in one class.
type Assignment struct {
	ID        string    `json:"id"`
	TeacherID string    `json:"teacher_id"`
	SubjectID string    `json:"subject_id"`
	ClassID   *string   `json:"class_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewTeacher struct {
	FullName      string   `json:"full_name" validate:"required,notblank,max=150"`
	Email         string   `json:"email" validate:"required,email"`
	Phone         *string  `json:"phone" validate:"omitempty,max=30"`
	Qualification *string  `json:"qualification" validate:"omitempty,max=150"`
	HireDate      *string  `json:"hire_date" validate:"omitempty,date"`
	Status        string   `json:"status" validate:"omitempty,oneof=active inactive"`
	SubjectIDs    []string `json:"subject_ids" validate:"omitempty,unique,dive,uuid"`
}

func (nt *NewTeacher) clean() {
	nt.FullName = core.CleanString(nt.FullName)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Phone = core.CleanStringPtr(nt.Phone)
	nt.Qualification = core.CleanStringPtr(nt.Qualification)
	nt.HireDate = core.CleanStringPtr(nt.HireDate)
	nt.Status = core.CleanString(nt.Status, true /* lower */)
	if nt.Status == "" {
		nt.Status = StatusActive
	}
	for i, id := range nt.SubjectIDs {
		nt.SubjectIDs[i] = core.CleanString(id)
	}
}

func (nt *NewTeacher) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nt.clean()
	if err := validate.Struct(nt); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nt.Email)
}

// UpdateTeacher defines what information may be provided to modify an existing Teacher.
// A nil SubjectIDs keeps the current assignments; an empty one clears them.
type UpdateTeacher NewTeacher

func (ut *UpdateTeacher) Validate(ctx context.Context, orig Teacher, validate *validator.Validate, svc *Service) error {
	if core.CleanString(ut.FullName) == "" {
		ut.FullName = orig.FullName
	}
	if core.CleanString(ut.Email) == "" {
		ut.Email = orig.Email
	}
	if core.CleanString(ut.Status) == "" {
		ut.Status = orig.Status
	}
	if ut.Phone == nil {
		ut.Phone = orig.Phone
	}
	if ut.Qualification == nil {
		ut.Qualification = orig.Qualification
	}
	if ut.HireDate == nil {
		ut.HireDate = orig.HireDate
	}
	if ut.SubjectIDs == nil {
		ut.SubjectIDs = orig.SubjectIDs
	}

	nt := (*NewTeacher)(ut)
	nt.clean()
	if err := validate.Struct(nt); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ut.Email, orig)
}

// NewAssignment contains information needed to assign a teacher to a subject in a class.
type NewAssignment struct {
	TeacherID string  `json:"teacher_id" validate:"required,uuid"`
	SubjectID string  `json:"subject_id" validate:"required,uuid"`
	ClassID   *string `json:"class_id" validate:"omitempty,uuid"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.TeacherID = core.CleanString(na.TeacherID)
	na.SubjectID = core.CleanString(na.SubjectID)
	na.ClassID = core.CleanStringPtr(na.ClassID)
	return validate.Struct(na)
}

type QueryFilter struct {
	Search    string `query:"search"`
	Status    string `query:"status"`
	SubjectID string `query:"subject_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.SubjectID = core.CleanString(qf.SubjectID)
}

// AssignmentFilter narrows assignment listings; empty fields match everything.
type AssignmentFilter struct {
	TeacherID string
	SubjectID string
	ClassID   string
}
