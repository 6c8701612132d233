package schedule

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core"
)

func intPtr(i int) *int { return &i }

func weekGrid(t *testing.T) []Cell {
	grid, err := NewGrid(core.ScheduleConfig{
		Days:      []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		TimeSlots: []string{"07:00-07:50", "07:50-08:40", "08:50-09:40", "09:40-10:30", "10:40-11:30", "11:30-12:20"},
	})
	require.NoError(t, err)
	cells, err := grid.Cells()
	require.NoError(t, err)
	require.Len(t, cells, 30)
	return cells
}

func TestGenerator_PeriodsFor(t *testing.T) {
	gen := NewGenerator(core.ScheduleConfig{})

	tests := []struct {
		name    string
		minutes *int
		cells   int
		want    int
	}{
		{name: "60 min", minutes: intPtr(60), cells: 30, want: 2},
		{name: "180 min", minutes: intPtr(180), cells: 30, want: 4},
		{name: "20 min: minimum wins", minutes: intPtr(20), cells: 30, want: 2},
		{name: "100 min", minutes: intPtr(100), cells: 30, want: 2},
		{name: "101 min", minutes: intPtr(101), cells: 30, want: 3},
		{name: "no workload: default 60 min", minutes: nil, cells: 30, want: 2},
		{name: "zero workload: default 60 min", minutes: intPtr(0), cells: 30, want: 2},
		{name: "bounded by cells", minutes: intPtr(5000), cells: 30, want: 30},
		{name: "minimum beats cells", minutes: intPtr(300), cells: 1, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gen.PeriodsFor(tt.minutes, tt.cells))
		})
	}
}

func TestGenerator_Allocate_scenario(t *testing.T) {
	gen := NewGenerator(core.ScheduleConfig{})
	room := "Sala 12"
	assignments := []Assignment{
		{TeacherID: "teacher-a", SubjectID: "subject-x", WeeklyMinutes: intPtr(100)},
		{TeacherID: "teacher-b", SubjectID: "subject-y", WeeklyMinutes: intPtr(50)},
	}

	t.Run("full week", func(t *testing.T) {
		entries, unplaced := gen.Allocate(rand.New(rand.NewSource(1)), Plan{
			ClassID:     "class",
			Room:        &room,
			Cells:       weekGrid(t),
			Assignments: assignments,
		})
		assert.Empty(t, unplaced)
		require.Len(t, entries, 4)

		perSubject := make(map[string]int)
		seen := make(map[string]bool)
		for _, e := range entries {
			perSubject[e.SubjectID]++
			assert.False(t, seen[e.Cell().Key()], "cell used twice")
			seen[e.Cell().Key()] = true
			assert.Equal(t, "class", e.ClassID)
			require.NotNil(t, e.Room)
			assert.Equal(t, room, *e.Room)
		}
		assert.Equal(t, map[string]int{"subject-x": 2, "subject-y": 2}, perSubject)
	})

	t.Run("single cell", func(t *testing.T) {
		cells := []Cell{{Day: Monday, TimeSlot: TimeSlot{Start: "07:00", End: "07:50"}}}
		entries, unplaced := gen.Allocate(rand.New(rand.NewSource(1)), Plan{
			ClassID:     "class",
			Cells:       cells,
			Assignments: assignments,
		})
		assert.Len(t, entries, 1)
		assert.Len(t, unplaced, 3)
		assert.Nil(t, entries[0].Room)
	})
}

func TestGenerator_Allocate_invariants(t *testing.T) {
	gen := NewGenerator(core.ScheduleConfig{})
	cells := weekGrid(t)
	inGrid := make(map[string]bool, len(cells))
	for _, c := range cells {
		inGrid[c.Key()] = true
	}

	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))

		// a few teachers sharing several subjects, sometimes more work than cells
		var assignments []Assignment
		for i, n := 0, 1+rng.Intn(8); i < n; i++ {
			assignments = append(assignments, Assignment{
				TeacherID:     fmt.Sprintf("teacher-%d", rng.Intn(3)),
				SubjectID:     fmt.Sprintf("subject-%d", i),
				WeeklyMinutes: intPtr(rng.Intn(400)),
			})
		}
		pending := gen.Pending(assignments, len(cells))

		entries, unplaced := gen.Allocate(rng, Plan{ClassID: "class", Cells: cells, Assignments: assignments})

		assert.Equal(t, len(pending), len(entries)+len(unplaced), "seed %d", seed)
		assert.LessOrEqual(t, len(entries), len(pending), "seed %d", seed)
		assert.LessOrEqual(t, len(entries), len(cells), "seed %d", seed)

		classCells := make(map[string]bool)
		teacherCells := make(map[string]bool)
		for _, e := range entries {
			key := e.Cell().Key()
			assert.True(t, inGrid[key], "seed %d: entry outside the grid", seed)
			assert.False(t, classCells[key], "seed %d: class double-booked at %s", seed, key)
			assert.False(t, teacherCells[e.TeacherID+"@"+key], "seed %d: teacher double-booked at %s", seed, key)
			classCells[key] = true
			teacherCells[e.TeacherID+"@"+key] = true
		}
	}
}

func TestGenerator_Allocate_seeded(t *testing.T) {
	gen := NewGenerator(core.ScheduleConfig{})
	plan := Plan{
		ClassID: "class",
		Cells:   weekGrid(t),
		Assignments: []Assignment{
			{TeacherID: "a", SubjectID: "x", WeeklyMinutes: intPtr(200)},
			{TeacherID: "b", SubjectID: "y", WeeklyMinutes: intPtr(150)},
			{TeacherID: "a", SubjectID: "z", WeeklyMinutes: intPtr(100)},
		},
	}

	first, _ := gen.Allocate(rand.New(rand.NewSource(42)), plan)
	again, _ := gen.Allocate(rand.New(rand.NewSource(42)), plan)
	assert.Equal(t, first, again)
}

func TestGenerator_Allocate_teacherBusy(t *testing.T) {
	gen := NewGenerator(core.ScheduleConfig{})
	cells := weekGrid(t)

	// teacher "a" is taken everywhere but on friday
	busy := map[string]bool{}
	for _, c := range cells {
		if c.Day != Friday {
			busy[c.Key()] = true
		}
	}
	entries, unplaced := gen.Allocate(rand.New(rand.NewSource(7)), Plan{
		ClassID:     "class",
		Cells:       cells,
		Assignments: []Assignment{{TeacherID: "a", SubjectID: "x", WeeklyMinutes: intPtr(500)}},
		TeacherBusy: map[string]map[string]bool{"a": busy},
	})
	assert.Len(t, entries, 6)
	assert.Len(t, unplaced, 4)
	for _, e := range entries {
		assert.Equal(t, Friday, e.DayOfWeek)
	}
	assert.Len(t, busy, 24, "the caller's busy set must not be mutated")
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		want    Day
		wantErr bool
	}{
		{name: "Monday", want: Monday},
		{name: " segunda ", want: Monday},
		{name: "Terça", want: Tuesday},
		{name: "QUARTA-FEIRA", want: Wednesday},
		{name: "sexta", want: Friday},
		{name: "Sábado", want: Saturday},
		{name: "sunday", want: Sunday},
		{name: "lol", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDay(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGrid_Cells(t *testing.T) {
	slot := TimeSlot{Start: "07:00", End: "07:50"}

	tests := []struct {
		name      string
		grid      Grid
		wantCells int
		wantField string
	}{
		{name: "ok", grid: Grid{Days: []string{"Monday", "terça"}, TimeSlots: []TimeSlot{slot}}, wantCells: 2},
		{name: "no days", grid: Grid{TimeSlots: []TimeSlot{slot}}, wantField: "days"},
		{name: "no slots", grid: Grid{Days: []string{"Monday"}}, wantField: "time_slots"},
		{name: "unknown day", grid: Grid{Days: []string{"Funday"}, TimeSlots: []TimeSlot{slot}}, wantField: "days"},
		{name: "duplicate day", grid: Grid{Days: []string{"Monday", "segunda"}, TimeSlots: []TimeSlot{slot}}, wantField: "days"},
		{name: "bad time", grid: Grid{Days: []string{"Monday"}, TimeSlots: []TimeSlot{{Start: "7:00", End: "07:50"}}}, wantField: "time_slots"},
		{name: "start after end", grid: Grid{Days: []string{"Monday"}, TimeSlots: []TimeSlot{{Start: "08:00", End: "07:50"}}}, wantField: "time_slots"},
		{name: "duplicate slot", grid: Grid{Days: []string{"Monday"}, TimeSlots: []TimeSlot{slot, slot}}, wantField: "time_slots"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells, err := tt.grid.Cells()
			if tt.wantField != "" {
				vErr, ok := err.(*core.ValidationError)
				require.True(t, ok, "want a *core.ValidationError, got %v", err)
				assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
				return
			}
			require.NoError(t, err)
			assert.Len(t, cells, tt.wantCells)
			assert.Equal(t, Tuesday, cells[1].Day)
		})
	}
}
