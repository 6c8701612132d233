package schedule

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/classroom"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("schedule entry not found")
	ErrNothingToSchedule = core.NewPreconditionError("no teacher is assigned to a subject in this class: nothing to schedule")

	errClassBusy   = "the class already has a lesson at this time"
	errTeacherBusy = "the teacher already has a lesson at this time"
)

// SeedFunc seeds generator runs that do not ask for a given seed.
var SeedFunc = func() int64 { return time.Now().UnixNano() } // mockable

type (
	Repository interface {
		// ListClassAssignments returns the class's assignments with their subject's weekly workload.
		ListClassAssignments(ctx context.Context, classID string, exec ...core.DBExecutor) ([]Assignment, error)
		// QueryEntries returns entries ordered by day then start time.
		QueryEntries(ctx context.Context, filter EntryFilter, exec ...core.DBExecutor) ([]Entry, error)
		GetEntry(ctx context.Context, id string, exec ...core.DBExecutor) (Entry, error)
		CreateEntry(ctx context.Context, e Entry, exec ...core.DBExecutor) (Entry, error)
		UpdateEntry(ctx context.Context, e Entry, exec ...core.DBExecutor) (Entry, error)
		DeleteEntry(ctx context.Context, id string, exec ...core.DBExecutor) error
		DeleteClassEntries(ctx context.Context, classID string, exec ...core.DBExecutor) (int, error)
		// ReplaceClassSchedule atomically deletes every entry of the class then inserts entries.
		// When the insert fails the previous entries are kept.
		ReplaceClassSchedule(ctx context.Context, classID string, entries []Entry, exec ...core.DBExecutor) ([]Entry, error)
	}

	Service struct {
		repo     Repository
		classSvc *classroom.Service
		gen      Generator
		grid     Grid
	}
)

func NewService(repo Repository, classSvc *classroom.Service, gen Generator, grid Grid) *Service {
	return &Service{
		repo:     repo,
		classSvc: classSvc,
		gen:      gen,
		grid:     grid,
	}
}

// DefaultGrid is the grid used when a request does not provide one.
func (svc *Service) DefaultGrid() Grid {
	return svc.grid
}

// Generate replaces the class's schedule with a new randomized allocation of its assignments.
// Nothing is mutated when the class is unknown, the grid invalid or the class has no assignments.
func (svc *Service) Generate(ctx context.Context, classID string, req GenerateRequest) (Result, error) {
	cls, err := svc.classSvc.Get(ctx, classID)
	if err != nil {
		return Result{}, err
	}

	grid := Grid{Days: req.Days, TimeSlots: req.TimeSlots}
	if grid.Days == nil {
		grid.Days = svc.grid.Days
	}
	if grid.TimeSlots == nil {
		grid.TimeSlots = svc.grid.TimeSlots
	}
	cells, err := grid.Cells()
	if err != nil {
		return Result{}, err
	}

	assignments, err := svc.repo.ListClassAssignments(ctx, cls.ID)
	if err != nil {
		return Result{}, errors.Wrap(err, "listing class assignments")
	}
	if len(assignments) == 0 {
		return Result{}, ErrNothingToSchedule
	}

	var busy map[string]map[string]bool
	if req.AvoidCrossClassConflicts {
		if busy, err = svc.teacherBusy(ctx, cls.ID, assignments, cells); err != nil {
			return Result{}, err
		}
	}

	seed := SeedFunc()
	if req.Seed != nil {
		seed = *req.Seed
	}
	entries, unplaced := svc.gen.Allocate(rand.New(rand.NewSource(seed)), Plan{
		ClassID:     cls.ID,
		Room:        cls.Room,
		Cells:       cells,
		Assignments: assignments,
		TeacherBusy: busy,
	})

	now := time.Now().UTC()
	for i := range entries {
		entries[i].CreatedAt = now
	}
	saved, err := svc.repo.ReplaceClassSchedule(ctx, cls.ID, entries)
	if err != nil {
		return Result{}, errors.Wrap(err, "replacing class schedule")
	}

	if saved == nil {
		saved = []Entry{}
	}
	if unplaced == nil {
		unplaced = []PendingPeriod{}
	}
	return Result{
		ClassID:  cls.ID,
		Seed:     seed,
		Entries:  saved,
		Unplaced: unplaced,
		Complete: len(unplaced) == 0,
	}, nil
}

// teacherBusy marks, per teacher, the cells overlapping a lesson they already give in another class.
func (svc *Service) teacherBusy(ctx context.Context, classID string, assignments []Assignment, cells []Cell) (map[string]map[string]bool, error) {
	ids := make([]string, 0, len(assignments))
	for _, asg := range assignments {
		ids = append(ids, asg.TeacherID)
	}
	others, err := svc.repo.QueryEntries(ctx, EntryFilter{ExcludeClassID: classID, TeacherIDs: ids})
	if err != nil {
		return nil, errors.Wrap(err, "querying other classes' entries")
	}
	busy := make(map[string]map[string]bool)
	for _, e := range others {
		if busy[e.TeacherID] == nil {
			busy[e.TeacherID] = make(map[string]bool)
		}
		for _, c := range cells {
			if e.overlaps(Entry{DayOfWeek: c.Day, StartTime: c.Start, EndTime: c.End}) {
				busy[e.TeacherID][c.Key()] = true
			}
		}
	}
	return busy, nil
}

// ListByClass returns the class's entries ordered by day then start time.
func (svc *Service) ListByClass(ctx context.Context, classID string) ([]Entry, error) {
	if _, err := svc.classSvc.Get(ctx, classID); err != nil {
		return nil, err
	}
	return svc.repo.QueryEntries(ctx, EntryFilter{ClassID: classID})
}

func (svc *Service) Get(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntry(ctx, id)
}

// checkConflicts rejects an entry overlapping another lesson of its class or of its teacher.
func (svc *Service) checkConflicts(ctx context.Context, e Entry) error {
	day := e.DayOfWeek
	sameDay, err := svc.repo.QueryEntries(ctx, EntryFilter{Day: &day})
	if err != nil {
		return errors.Wrap(err, "querying entries")
	}
	for _, o := range sameDay {
		if o.ID == e.ID || !e.overlaps(o) {
			continue
		}
		if o.ClassID == e.ClassID {
			return core.NewValidationError(nil, core.FieldError{Field: "start_time", Error: errClassBusy})
		}
		if o.TeacherID == e.TeacherID {
			return core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: errTeacherBusy})
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ne NewEntry) (Entry, error) {
	cls, err := svc.classSvc.Get(ctx, ne.ClassID)
	if err != nil {
		if core.IsNotFound(err) {
			return Entry{}, core.NewValidationError(err, core.FieldError{Field: "class_id", Error: err.Error()})
		}
		return Entry{}, err
	}

	e := ne.entry()
	if e.Room == nil {
		e.Room = cls.Room
	}
	if err = svc.checkConflicts(ctx, e); err != nil {
		return Entry{}, err
	}
	e.CreatedAt = time.Now().UTC()
	return svc.repo.CreateEntry(ctx, e)
}

func (svc *Service) Update(ctx context.Context, orig Entry, ue UpdateEntry) (Entry, error) {
	e := NewEntry(ue).entry()
	e.ID = orig.ID
	e.CreatedAt = orig.CreatedAt
	if err := svc.checkConflicts(ctx, e); err != nil {
		return Entry{}, err
	}
	return svc.repo.UpdateEntry(ctx, e)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteEntry(ctx, id)
}

// Clear removes every entry of the class.
func (svc *Service) Clear(ctx context.Context, classID string) (int, error) {
	if _, err := svc.classSvc.Get(ctx, classID); err != nil {
		return 0, err
	}
	return svc.repo.DeleteClassEntries(ctx, classID)
}
