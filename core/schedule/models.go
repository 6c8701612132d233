package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
)

// Day is a weekday with a stable index: Monday=0 ... Sunday=6.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var dayAliases = map[string]Day{
	"monday": Monday, "segunda": Monday, "segunda-feira": Monday,
	"tuesday": Tuesday, "terca": Tuesday, "terça": Tuesday, "terca-feira": Tuesday, "terça-feira": Tuesday,
	"wednesday": Wednesday, "quarta": Wednesday, "quarta-feira": Wednesday,
	"thursday": Thursday, "quinta": Thursday, "quinta-feira": Thursday,
	"friday": Friday, "sexta": Friday, "sexta-feira": Friday,
	"saturday": Saturday, "sabado": Saturday, "sábado": Saturday,
	"sunday": Sunday, "domingo": Sunday,
}

var errUnknownDay = errors.New("unknown weekday")

// ParseDay resolves an english or portuguese weekday name (case-insensitive).
func ParseDay(name string) (Day, error) {
	if d, ok := dayAliases[core.CleanString(name, true /* lower */)]; ok {
		return d, nil
	}
	return 0, errors.Wrapf(errUnknownDay, "%q", name)
}

func (d Day) Valid() bool { return d >= Monday && d <= Sunday }

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

type TimeSlot struct {
	Start string `json:"start" validate:"required,hhmm"`
	End   string `json:"end" validate:"required,hhmm"`
}

// ParseTimeSlot parses "HH:MM-HH:MM".
func ParseTimeSlot(s string) (TimeSlot, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return TimeSlot{}, errors.Errorf("invalid time slot %q: want HH:MM-HH:MM", s)
	}
	ts := TimeSlot{Start: core.CleanString(parts[0]), End: core.CleanString(parts[1])}
	if err := ts.check(); err != nil {
		return TimeSlot{}, err
	}
	return ts, nil
}

func (ts TimeSlot) check() error {
	if !core.IsHHMM(ts.Start) || !core.IsHHMM(ts.End) {
		return errors.Errorf("invalid time slot %s: times must be formatted as HH:MM", ts)
	}
	if ts.Start >= ts.End { // zero-padded 24h times sort lexically
		return errors.Errorf("invalid time slot %s: start must be before end", ts)
	}
	return nil
}

func (ts TimeSlot) String() string {
	return ts.Start + " - " + ts.End
}

// Cell is one (day, time slot) position of the weekly grid.
type Cell struct {
	Day Day
	TimeSlot
}

func (c Cell) Key() string {
	return fmt.Sprintf("%d-%s-%s", c.Day, c.Start, c.End)
}

// Grid is the weekly period grid: an ordered list of days by an ordered list of time slots.
type Grid struct {
	Days      []string   `json:"days"`
	TimeSlots []TimeSlot `json:"time_slots"`
}

// NewGrid builds the default grid from configuration.
func NewGrid(conf core.ScheduleConfig) (Grid, error) {
	g := Grid{Days: conf.Days}
	for _, s := range conf.TimeSlots {
		ts, err := ParseTimeSlot(s)
		if err != nil {
			return Grid{}, errors.Wrap(err, "parsing schedule.timeSlots")
		}
		g.TimeSlots = append(g.TimeSlots, ts)
	}
	if _, err := g.Cells(); err != nil {
		return Grid{}, errors.Wrap(err, "checking default grid")
	}
	return g, nil
}

// Cells returns the day-major cartesian product of days by time slots.
// It fails with a *core.ValidationError when the grid is empty, malformed or has duplicates.
func (g Grid) Cells() ([]Cell, error) {
	if len(g.Days) == 0 {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "days", Error: "at least one day is required"})
	}
	if len(g.TimeSlots) == 0 {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "time_slots", Error: "at least one time slot is required"})
	}

	days := make([]Day, 0, len(g.Days))
	seenDays := make(map[Day]bool, len(g.Days))
	for _, name := range g.Days {
		d, err := ParseDay(name)
		if err != nil {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "days", Error: err.Error()})
		}
		if seenDays[d] {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "days", Error: fmt.Sprintf("duplicate day %q", name)})
		}
		seenDays[d] = true
		days = append(days, d)
	}

	seenSlots := make(map[TimeSlot]bool, len(g.TimeSlots))
	for _, ts := range g.TimeSlots {
		if err := ts.check(); err != nil {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "time_slots", Error: err.Error()})
		}
		if seenSlots[ts] {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "time_slots", Error: fmt.Sprintf("duplicate time slot %s", ts)})
		}
		seenSlots[ts] = true
	}

	cells := make([]Cell, 0, len(days)*len(g.TimeSlots))
	for _, d := range days {
		for _, ts := range g.TimeSlots {
			cells = append(cells, Cell{Day: d, TimeSlot: ts})
		}
	}
	return cells, nil
}

// Assignment is a teacher's responsibility for a subject in a class, with the subject's weekly workload.
type Assignment struct {
	ID            string
	TeacherID     string
	SubjectID     string
	WeeklyMinutes *int
}

// PendingPeriod is one required lesson instance of an assignment.
type PendingPeriod struct {
	TeacherID string `json:"teacher_id"`
	SubjectID string `json:"subject_id"`
}

// Entry is a scheduled lesson of a class.
type Entry struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	SubjectID string    `json:"subject_id"`
	TeacherID string    `json:"teacher_id"`
	DayOfWeek Day       `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Room      *string   `json:"room"`
	CreatedAt time.Time `json:"created_at"` // UTC

	// filled on reads
	SubjectName string `json:"subject_name,omitempty"`
	TeacherName string `json:"teacher_name,omitempty"`
}

func (e Entry) Cell() Cell {
	return Cell{Day: e.DayOfWeek, TimeSlot: TimeSlot{Start: e.StartTime, End: e.EndTime}}
}

func (e Entry) overlaps(o Entry) bool {
	return e.DayOfWeek == o.DayOfWeek && e.StartTime < o.EndTime && o.StartTime < e.EndTime
}

// NewEntry contains information needed to schedule a lesson manually.
type NewEntry struct {
	ClassID   string  `json:"class_id" validate:"required,uuid"`
	SubjectID string  `json:"subject_id" validate:"required,uuid"`
	TeacherID string  `json:"teacher_id" validate:"required,uuid"`
	DayOfWeek *int    `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime string  `json:"start_time" validate:"required,hhmm"`
	EndTime   string  `json:"end_time" validate:"required,hhmm"`
	Room      *string `json:"room" validate:"omitempty,max=50"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.ClassID = core.CleanString(ne.ClassID)
	ne.SubjectID = core.CleanString(ne.SubjectID)
	ne.TeacherID = core.CleanString(ne.TeacherID)
	ne.StartTime = core.CleanString(ne.StartTime)
	ne.EndTime = core.CleanString(ne.EndTime)
	ne.Room = core.CleanStringPtr(ne.Room)
	if err := validate.Struct(ne); err != nil {
		return err
	}
	if ne.StartTime >= ne.EndTime {
		return core.NewValidationError(nil, core.FieldError{Field: "end_time", Error: "end time must be after start time"})
	}
	return nil
}

func (ne NewEntry) entry() Entry {
	return Entry{
		ClassID:   ne.ClassID,
		SubjectID: ne.SubjectID,
		TeacherID: ne.TeacherID,
		DayOfWeek: Day(*ne.DayOfWeek),
		StartTime: ne.StartTime,
		EndTime:   ne.EndTime,
		Room:      ne.Room,
	}
}

// UpdateEntry moves or reassigns a lesson; the class never changes.
type UpdateEntry NewEntry

func (ue *UpdateEntry) Validate(orig Entry, validate *validator.Validate) error {
	ue.ClassID = orig.ClassID
	if core.CleanString(ue.SubjectID) == "" {
		ue.SubjectID = orig.SubjectID
	}
	if core.CleanString(ue.TeacherID) == "" {
		ue.TeacherID = orig.TeacherID
	}
	if ue.DayOfWeek == nil {
		d := int(orig.DayOfWeek)
		ue.DayOfWeek = &d
	}
	if core.CleanString(ue.StartTime) == "" {
		ue.StartTime = orig.StartTime
	}
	if core.CleanString(ue.EndTime) == "" {
		ue.EndTime = orig.EndTime
	}
	if ue.Room == nil {
		ue.Room = orig.Room
	}
	return (*NewEntry)(ue).Validate(validate)
}

// GenerateRequest configures one generator run. A nil grid part falls back to the default grid.
type GenerateRequest struct {
	Days      []string   `json:"days" validate:"omitempty,dive,weekday"`
	TimeSlots []TimeSlot `json:"time_slots" validate:"omitempty,dive"`
	// Seed replays a previous run when set.
	Seed                     *int64 `json:"seed"`
	AvoidCrossClassConflicts bool   `json:"avoid_cross_class_conflicts"`
}

// EntryFilter narrows entry listings; empty fields match everything.
type EntryFilter struct {
	ClassID        string
	ExcludeClassID string
	TeacherIDs     []string
	Day            *Day
}
