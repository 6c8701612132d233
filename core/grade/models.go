package grade

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

// Period types
const (
	PeriodBimonthly = "bimonthly"
	PeriodSemestral = "semestral"
)

type GradingPeriod struct {
	ID           string    `json:"id"`
	AcademicYear int       `json:"academic_year"`
	PeriodType   string    `json:"period_type"`
	PeriodNumber int       `json:"period_number"`
	Name         string    `json:"name"`
	StartDate    string    `json:"start_date"` // YYYY-MM-DD
	EndDate      string    `json:"end_date"`   // YYYY-MM-DD
	CreatedAt    time.Time `json:"created_at"` // UTC
}

type Grade struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"student_id"`
	SubjectID       string    `json:"subject_id"`
	GradingPeriodID string    `json:"grading_period_id"`
	Score           *float64  `json:"score"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// SheetRow is one student's line on a class/subject grade sheet.
type SheetRow struct {
	StudentID          string `json:"student_id"`
	StudentName        string `json:"student_name"`
	RegistrationNumber string `json:"registration_number"`
	// Scores and GradeIDs are indexed by period number - 1; nil when not graded yet.
	Scores   [periodsPerYear]*float64 `json:"scores"`
	GradeIDs [periodsPerYear]*string  `json:"grade_ids"`
	Summary
}

// Sheet is the grade sheet of a class in a subject for an academic year.
type Sheet struct {
	ClassID   string          `json:"class_id"`
	SubjectID string          `json:"subject_id"`
	Year      int             `json:"year"`
	Periods   []GradingPeriod `json:"periods"`
	Rows      []SheetRow      `json:"rows"`
}

// SheetQuery selects a grade sheet.
type SheetQuery struct {
	ClassID   string `query:"class_id" validate:"required,uuid"`
	SubjectID string `query:"subject_id" validate:"required,uuid"`
	Year      int    `query:"year" validate:"omitempty,min=1900,max=3000"`
}

func (sq *SheetQuery) Validate(validate *validator.Validate, defaultYear int) error {
	sq.ClassID = core.CleanString(sq.ClassID)
	sq.SubjectID = core.CleanString(sq.SubjectID)
	if sq.Year == 0 {
		sq.Year = defaultYear
	}
	return validate.Struct(sq)
}

// UpsertGrade sets one score, keyed by (student, subject, period). A nil score is skipped.
type UpsertGrade struct {
	StudentID       string   `json:"student_id" validate:"required,uuid"`
	SubjectID       string   `json:"subject_id" validate:"required,uuid"`
	GradingPeriodID string   `json:"grading_period_id" validate:"required,uuid"`
	Score           *float64 `json:"score" validate:"omitempty,min=0,max=10"`
}

type UpsertGrades struct {
	Grades []UpsertGrade `json:"grades" validate:"required,min=1,dive"`
}

func (ug *UpsertGrades) Validate(validate *validator.Validate) error {
	for i := range ug.Grades {
		g := &ug.Grades[i]
		g.StudentID = core.CleanString(g.StudentID)
		g.SubjectID = core.CleanString(g.SubjectID)
		g.GradingPeriodID = core.CleanString(g.GradingPeriodID)
	}
	return validate.Struct(ug)
}

type PeriodFilter struct {
	Year       int    `query:"year"`
	PeriodType string `query:"type"`
}

func (pf *PeriodFilter) Clean(defaultYear int) {
	if pf.Year == 0 {
		pf.Year = defaultYear
	}
	pf.PeriodType = core.CleanString(pf.PeriodType, true /* lower */)
}

// GradeFilter narrows grade listings; empty fields match everything.
type GradeFilter struct {
	SubjectID  string
	StudentIDs []string
	PeriodIDs  []string
}
