package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV(t *testing.T) {
	grid := Grid{
		Days: []string{"Segunda", "Terça"},
		TimeSlots: []TimeSlot{
			{Start: "07:00", End: "07:50"},
			{Start: "07:50", End: "08:40"},
		},
	}
	entries := []Entry{
		{DayOfWeek: Monday, StartTime: "07:00", EndTime: "07:50", SubjectName: "Matemática", TeacherName: "Maria Souza"},
		{DayOfWeek: Tuesday, StartTime: "07:50", EndTime: "08:40", SubjectName: `Arte "livre"`, TeacherName: "João"},
		{DayOfWeek: Friday, StartTime: "07:00", EndTime: "07:50", SubjectName: "Fora da grade", TeacherName: "X"},
	}

	got, err := ExportCSV(grid, entries)
	require.NoError(t, err)
	want := "Horário,Segunda,Terça,Friday\n" +
		`07:00 - 07:50,"Matemática - Maria Souza",,"Fora da grade - X"` + "\n" +
		`07:50 - 08:40,,"Arte ""livre"" - João",`
	assert.Equal(t, want, got)
}

func TestExportCSV_entriesOutsideGrid(t *testing.T) {
	grid := Grid{
		Days:      []string{"Tuesday", "Monday"},
		TimeSlots: []TimeSlot{{Start: "07:00", End: "07:50"}},
	}
	entries := []Entry{
		{DayOfWeek: Friday, StartTime: "14:00", EndTime: "14:50", SubjectName: "Artes", TeacherName: "Rui"},
		{DayOfWeek: Friday, StartTime: "13:00", EndTime: "13:50", SubjectName: "Artes", TeacherName: "Rui"},
	}

	got, err := ExportCSV(grid, entries)
	require.NoError(t, err)
	want := "Horário,Monday,Tuesday,Friday\n" +
		"07:00 - 07:50,,,\n" +
		`13:00 - 13:50,,,"Artes - Rui"` + "\n" +
		`14:00 - 14:50,,,"Artes - Rui"`
	assert.Equal(t, want, got)
}

func TestExportCSV_invalidGrid(t *testing.T) {
	_, err := ExportCSV(Grid{}, nil)
	assert.Error(t, err)
}
