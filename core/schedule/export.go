package schedule

import (
	"sort"
	"strings"

	"github.com/trezcool/escola/core"
)

const exportSlotHeader = "Horário"

// ExportCSV renders the class timetable: one row per time slot, one column per day.
// Occupied cells read "Subject - Teacher"; free cells are empty.
// Days and slots of entries placed outside grid (a custom generator grid) are added, so no entry is lost.
func ExportCSV(grid Grid, entries []Entry) (string, error) {
	days, labels, slots, err := exportAxes(grid, entries)
	if err != nil {
		return "", err
	}
	byCell := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byCell[e.Cell().Key()] = e
	}

	header := make([]string, 0, len(days)+1)
	header = append(header, exportSlotHeader)
	for _, d := range days {
		header = append(header, labels[d])
	}

	lines := make([]string, 0, len(slots)+1)
	lines = append(lines, strings.Join(header, ","))
	for _, ts := range slots {
		row := make([]string, 0, len(days)+1)
		row = append(row, ts.String())
		for _, d := range days {
			e, ok := byCell[Cell{Day: d, TimeSlot: ts}.Key()]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, core.QuoteCSV(entryLabel(e)))
		}
		lines = append(lines, strings.Join(row, ","))
	}
	return strings.Join(lines, "\n"), nil
}

// exportAxes returns the union of the grid's and the entries' days (by weekday index) and slots (by start time).
// Grid days keep their configured label; other days use their english name.
func exportAxes(grid Grid, entries []Entry) ([]Day, map[Day]string, []TimeSlot, error) {
	if _, err := grid.Cells(); err != nil {
		return nil, nil, nil, err
	}

	labels := make(map[Day]string, len(grid.Days))
	days := make([]Day, 0, len(grid.Days))
	for _, name := range grid.Days {
		d, _ := ParseDay(name) // checked by Cells
		labels[d] = name
		days = append(days, d)
	}
	seenSlots := make(map[TimeSlot]bool, len(grid.TimeSlots))
	slots := make([]TimeSlot, 0, len(grid.TimeSlots))
	for _, ts := range grid.TimeSlots {
		seenSlots[ts] = true
		slots = append(slots, ts)
	}

	for _, e := range entries {
		if _, ok := labels[e.DayOfWeek]; !ok {
			labels[e.DayOfWeek] = e.DayOfWeek.String()
			days = append(days, e.DayOfWeek)
		}
		if ts := e.Cell().TimeSlot; !seenSlots[ts] {
			seenSlots[ts] = true
			slots = append(slots, ts)
		}
	}

	sort.SliceStable(days, func(i, j int) bool { return days[i] < days[j] })
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Start != slots[j].Start {
			return slots[i].Start < slots[j].Start
		}
		return slots[i].End < slots[j].End
	})
	return days, labels, slots, nil
}

func entryLabel(e Entry) string {
	subject, teacher := e.SubjectName, e.TeacherName
	if subject == "" {
		subject = e.SubjectID
	}
	if teacher == "" {
		teacher = e.TeacherID
	}
	return subject + " - " + teacher
}
