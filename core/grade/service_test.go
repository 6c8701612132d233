package grade_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core/classroom"
	"github.com/trezcool/escola/core/grade"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/storage/database/inmem"
	"github.com/trezcool/escola/tests"
)

const testYear = 2024

func newService(db *inmemdb.DB) *grade.Service {
	return grade.NewService(
		inmemdb.NewGradeRepository(db),
		classroom.NewService(inmemdb.NewClassRepository(db)),
		student.NewService(inmemdb.NewStudentRepository(db)),
		testYear,
	)
}

func score(f float64) *float64 { return &f }

func TestService_SeedPeriods(t *testing.T) {
	svc := newService(inmemdb.NewDB())
	ctx := context.Background()

	periods, err := svc.SeedPeriods(ctx, 0)
	require.NoError(t, err)
	require.Len(t, periods, 4)
	for i, p := range periods {
		assert.Equal(t, testYear, p.AcademicYear)
		assert.Equal(t, grade.PeriodBimonthly, p.PeriodType)
		assert.Equal(t, i+1, p.PeriodNumber)
	}
	assert.Equal(t, "2024-02-01", periods[0].StartDate)
	assert.Equal(t, "1º Bimestre", periods[0].Name)

	again, err := svc.SeedPeriods(ctx, testYear)
	require.NoError(t, err)
	assert.Equal(t, periods, again)

	other, err := svc.ListPeriods(ctx, grade.PeriodFilter{Year: 2025})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestService_Sheet(t *testing.T) {
	db := inmemdb.NewDB()
	svc := newService(db)
	ctx := context.Background()

	periods, err := svc.SeedPeriods(ctx, testYear)
	require.NoError(t, err)

	subjectRepo := inmemdb.NewSubjectRepository(db)
	classRepo := inmemdb.NewClassRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)
	math := testutil.CreateSubject(t, subjectRepo, "Matemática", "MAT", nil)
	cls := testutil.CreateClass(t, classRepo, "7º B", testYear, nil)
	empty := testutil.CreateClass(t, classRepo, "8º C", testYear, nil)
	bia := testutil.CreateStudent(t, studentRepo, "Bia Lima", "2024002", &cls.ID, "")
	ana := testutil.CreateStudent(t, studentRepo, "Ana Costa", "2024001", &cls.ID, "")
	caio := testutil.CreateStudent(t, studentRepo, "Caio Reis", "2024003", &cls.ID, "")

	upsert := func(std student.Student, scores ...float64) {
		ug := grade.UpsertGrades{}
		for i, s := range scores {
			ug.Grades = append(ug.Grades, grade.UpsertGrade{
				StudentID:       std.ID,
				SubjectID:       math.ID,
				GradingPeriodID: periods[i].ID,
				Score:           score(s),
			})
		}
		_, err := svc.Upsert(ctx, ug)
		require.NoError(t, err)
	}
	upsert(ana, 8, 7, 9, 6.5)
	upsert(bia, 4, 5, 3, 6)
	upsert(caio, 6, 6.5)

	t.Run("unknown class", func(t *testing.T) {
		_, err := svc.Sheet(ctx, grade.SheetQuery{ClassID: testutil.UnknownID, SubjectID: math.ID})
		assert.Equal(t, classroom.ErrNotFound, err)
	})

	t.Run("class without students", func(t *testing.T) {
		sheet, err := svc.Sheet(ctx, grade.SheetQuery{ClassID: empty.ID, SubjectID: math.ID})
		require.NoError(t, err)
		assert.Empty(t, sheet.Rows)
		assert.Len(t, sheet.Periods, 4)
	})

	t.Run("rows ordered by name with summaries", func(t *testing.T) {
		sheet, err := svc.Sheet(ctx, grade.SheetQuery{ClassID: cls.ID, SubjectID: math.ID})
		require.NoError(t, err)
		require.Len(t, sheet.Rows, 3)
		assert.Equal(t, testYear, sheet.Year)

		assert.Equal(t, ana.ID, sheet.Rows[0].StudentID)
		assert.Equal(t, grade.StatusApproved, sheet.Rows[0].Status)
		assert.InDelta(t, 7.6, *sheet.Rows[0].Average, 1e-9)

		assert.Equal(t, bia.ID, sheet.Rows[1].StudentID)
		assert.Equal(t, grade.StatusFailed, sheet.Rows[1].Status)
		assert.InDelta(t, 4.5, *sheet.Rows[1].Average, 1e-9)

		assert.Equal(t, caio.ID, sheet.Rows[2].StudentID)
		assert.Equal(t, grade.StatusPending, sheet.Rows[2].Status)
		assert.Nil(t, sheet.Rows[2].Scores[2])
		assert.Nil(t, sheet.Rows[2].GradeIDs[3])
		assert.InDelta(t, 6.3, *sheet.Rows[2].Average, 1e-9)
	})

	t.Run("upsert overwrites the same key", func(t *testing.T) {
		upsert(caio, 6, 6.5, 7, 8)
		upsert(caio, 9)

		sheet, err := svc.Sheet(ctx, grade.SheetQuery{ClassID: cls.ID, SubjectID: math.ID})
		require.NoError(t, err)
		row := sheet.Rows[2]
		assert.Equal(t, 9.0, *row.Scores[0])
		assert.Equal(t, grade.StatusApproved, row.Status)

		grades, err := inmemdb.NewGradeRepository(db).QueryGrades(ctx, grade.GradeFilter{StudentIDs: []string{caio.ID}})
		require.NoError(t, err)
		assert.Len(t, grades, 4)
	})

	t.Run("nil scores are skipped", func(t *testing.T) {
		saved, err := svc.Upsert(ctx, grade.UpsertGrades{Grades: []grade.UpsertGrade{
			{StudentID: bia.ID, SubjectID: math.ID, GradingPeriodID: periods[0].ID},
		}})
		require.NoError(t, err)
		assert.Empty(t, saved)
	})

	t.Run("delete", func(t *testing.T) {
		sheet, err := svc.Sheet(ctx, grade.SheetQuery{ClassID: cls.ID, SubjectID: math.ID})
		require.NoError(t, err)
		id := *sheet.Rows[0].GradeIDs[3]

		require.NoError(t, svc.Delete(ctx, id))
		assert.Equal(t, grade.ErrNotFound, svc.Delete(ctx, id))

		sheet, err = svc.Sheet(ctx, grade.SheetQuery{ClassID: cls.ID, SubjectID: math.ID})
		require.NoError(t, err)
		assert.Equal(t, grade.StatusPending, sheet.Rows[0].Status)
		assert.InDelta(t, 8.0, *sheet.Rows[0].Average, 1e-9)
	})
}
