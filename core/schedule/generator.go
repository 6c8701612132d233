package schedule

import (
	"math/rand"

	"github.com/trezcool/escola/core"
)

// Generator places the pending periods of a class into the weekly grid.
type Generator struct {
	PeriodMinutes   int // length of one period
	MinPeriods      int // periods per assignment, whatever its workload
	DefaultWorkload int // weekly minutes of a subject without workload
}

func NewGenerator(conf core.ScheduleConfig) Generator {
	g := Generator{
		PeriodMinutes:   conf.PeriodMinutes,
		MinPeriods:      conf.MinPeriods,
		DefaultWorkload: conf.DefaultWorkload,
	}
	if g.PeriodMinutes <= 0 {
		g.PeriodMinutes = 50
	}
	if g.MinPeriods <= 0 {
		g.MinPeriods = 2
	}
	if g.DefaultWorkload <= 0 {
		g.DefaultWorkload = 60
	}
	return g
}

// PeriodsFor returns how many periods an assignment needs:
// max(MinPeriods, min(ceil(minutes / PeriodMinutes), cells)).
func (g Generator) PeriodsFor(weeklyMinutes *int, cells int) int {
	minutes := g.DefaultWorkload
	if weeklyMinutes != nil && *weeklyMinutes > 0 {
		minutes = *weeklyMinutes
	}
	periods := (minutes + g.PeriodMinutes - 1) / g.PeriodMinutes
	if periods > cells {
		periods = cells
	}
	if periods < g.MinPeriods {
		periods = g.MinPeriods
	}
	return periods
}

// Pending expands the assignments into one PendingPeriod per required period, in assignment order.
func (g Generator) Pending(assignments []Assignment, cells int) []PendingPeriod {
	var pending []PendingPeriod
	for _, asg := range assignments {
		n := g.PeriodsFor(asg.WeeklyMinutes, cells)
		for i := 0; i < n; i++ {
			pending = append(pending, PendingPeriod{TeacherID: asg.TeacherID, SubjectID: asg.SubjectID})
		}
	}
	return pending
}

// Plan is the input of one allocation.
type Plan struct {
	ClassID     string
	Room        *string
	Cells       []Cell
	Assignments []Assignment
	// TeacherBusy pre-seeds the cells (by Cell.Key) each teacher already occupies elsewhere.
	TeacherBusy map[string]map[string]bool
}

// Allocate shuffles the pending periods with rng then places each one, first-fit,
// into the first cell that is free for both the class and the teacher.
// Periods that fit nowhere are returned as unplaced.
func (g Generator) Allocate(rng *rand.Rand, plan Plan) (entries []Entry, unplaced []PendingPeriod) {
	pending := g.Pending(plan.Assignments, len(plan.Cells))
	rng.Shuffle(len(pending), func(i, j int) { pending[i], pending[j] = pending[j], pending[i] })

	classUsed := make(map[string]bool, len(plan.Cells))
	teacherUsed := make(map[string]map[string]bool)
	for tid, busy := range plan.TeacherBusy {
		used := make(map[string]bool, len(busy))
		for key := range busy {
			used[key] = true
		}
		teacherUsed[tid] = used
	}

	for _, p := range pending {
		used, ok := teacherUsed[p.TeacherID]
		if !ok {
			used = make(map[string]bool)
			teacherUsed[p.TeacherID] = used
		}

		placed := false
		for _, c := range plan.Cells {
			key := c.Key()
			if classUsed[key] || used[key] {
				continue
			}
			classUsed[key] = true
			used[key] = true
			entries = append(entries, Entry{
				ClassID:   plan.ClassID,
				SubjectID: p.SubjectID,
				TeacherID: p.TeacherID,
				DayOfWeek: c.Day,
				StartTime: c.Start,
				EndTime:   c.End,
				Room:      plan.Room,
			})
			placed = true
			break
		}
		if !placed {
			unplaced = append(unplaced, p)
		}
	}
	return entries, unplaced
}

// Result is the outcome of a generator run.
type Result struct {
	ClassID string `json:"class_id"`
	// Seed replays this run.
	Seed     int64           `json:"seed"`
	Entries  []Entry         `json:"entries"`
	Unplaced []PendingPeriod `json:"unplaced"`
	Complete bool            `json:"complete"`
}
