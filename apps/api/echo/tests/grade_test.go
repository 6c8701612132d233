package tests

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core/grade"
	"github.com/trezcool/escola/tests"
)

func Test_gradeApi_periods(t *testing.T) {
	db.Reset()

	runTests(t, []httpTest{
		{name: "None yet", path: "/v1/grading-periods", token: getToken(t, learner), wantData: marchallList(t)},
		{name: "Admin required", method: http.MethodPost, path: "/v1/grading-periods/seed", token: getToken(t, prof), wantCode: http.StatusForbidden},
	})

	rec := serve(http.MethodPost, "/v1/grading-periods/seed", getToken(t, admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var periods []grade.GradingPeriod
	unmarshal(t, rec, &periods)
	require.Len(t, periods, 4)
	for i, p := range periods {
		assert.Equal(t, testYear, p.AcademicYear)
		assert.Equal(t, grade.PeriodBimonthly, p.PeriodType)
		assert.Equal(t, i+1, p.PeriodNumber)
	}
	assert.Equal(t, "2024-02-01", periods[0].StartDate)

	// seeding is idempotent
	rec = serve(http.MethodPost, "/v1/grading-periods/seed", getToken(t, admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var again []grade.GradingPeriod
	unmarshal(t, rec, &again)
	assert.Equal(t, periods, again)

	runTests(t, []httpTest{
		{name: "Listed", path: "/v1/grading-periods", token: getToken(t, learner), wantData: marchallObj(t, periods)},
		{name: "Other year", path: "/v1/grading-periods?year=2023", token: getToken(t, learner), wantData: marchallList(t)},
	})
}

func Test_gradeApi_sheet(t *testing.T) {
	db.Reset()

	cls := testutil.CreateClass(t, classRepo, "1º A", testYear, nil)
	sub := testutil.CreateSubject(t, subjectRepo, "Matemática", "MAT", nil)
	ana := testutil.CreateStudent(t, studentRepo, "Ana Souza", "2024001", &cls.ID, "")
	bia := testutil.CreateStudent(t, studentRepo, "Bia Lima", "2024002", &cls.ID, "")

	rec := serve(http.MethodPost, "/v1/grading-periods/seed", getToken(t, admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var periods []grade.GradingPeriod
	unmarshal(t, rec, &periods)

	query := fmt.Sprintf("class_id=%s&subject_id=%s", cls.ID, sub.ID)
	score := func(studentID string, period int, s interface{}) map[string]interface{} {
		return map[string]interface{}{
			"student_id": studentID, "subject_id": sub.ID, "grading_period_id": periods[period].ID, "score": s,
		}
	}
	batch := func(grades ...map[string]interface{}) []byte {
		return marchallObj(t, map[string]interface{}{"grades": grades})
	}

	runTests(t, []httpTest{
		{name: "class_id required", path: "/v1/grades?subject_id=" + sub.ID, token: getToken(t, learner), wantCode: http.StatusBadRequest},
		{name: "Invalid year", path: "/v1/grades?" + query + "&year=next", token: getToken(t, learner), wantCode: http.StatusBadRequest},
		{
			name: "Students cannot grade", method: http.MethodPut, path: "/v1/grades", token: getToken(t, learner),
			body: batch(score(ana.ID, 0, 8)), wantCode: http.StatusForbidden,
		},
		{
			name: "Score out of range", method: http.MethodPut, path: "/v1/grades", token: getToken(t, prof),
			body: batch(score(ana.ID, 0, 10.5)), wantCode: http.StatusBadRequest,
		},
		{
			name: "Unknown student", method: http.MethodPut, path: "/v1/grades", token: getToken(t, prof),
			body: batch(score(testutil.UnknownID, 0, 8)), wantCode: http.StatusBadRequest,
		},
	})

	rec = serve(http.MethodPut, "/v1/grades", getToken(t, prof), batch(
		score(ana.ID, 0, 8), score(ana.ID, 1, 7), score(ana.ID, 2, 9), score(ana.ID, 3, 6),
		score(bia.ID, 0, 4), score(bia.ID, 1, 5), score(bia.ID, 2, nil),
	))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var saved []grade.Grade
	unmarshal(t, rec, &saved)
	assert.Len(t, saved, 6) // nil scores are skipped

	// upserting the same key updates it
	rec = serve(http.MethodPut, "/v1/grades", getToken(t, admin), batch(score(ana.ID, 3, 6.5)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(http.MethodGet, "/v1/grades?"+query, getToken(t, learner))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sheet grade.Sheet
	unmarshal(t, rec, &sheet)
	assert.Equal(t, testYear, sheet.Year)
	require.Len(t, sheet.Rows, 2)

	rowAna, rowBia := sheet.Rows[0], sheet.Rows[1]
	assert.Equal(t, ana.ID, rowAna.StudentID)
	require.NotNil(t, rowAna.Average)
	assert.Equal(t, 7.6, *rowAna.Average) // 30.5 / 4 = 7.625
	assert.Equal(t, grade.StatusApproved, rowAna.Status)

	assert.Equal(t, bia.ID, rowBia.StudentID)
	require.NotNil(t, rowBia.Average)
	assert.Equal(t, 4.5, *rowBia.Average)
	assert.Equal(t, grade.StatusPending, rowBia.Status)
	assert.Nil(t, rowBia.Scores[2])
	assert.Nil(t, rowBia.GradeIDs[3])

	// export
	rec = serve(http.MethodGet, "/v1/grades/export?"+query, getToken(t, learner))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Equal(t, strings.Join([]string{
		"Matrícula,Aluno,1º Bimestre,2º Bimestre,3º Bimestre,4º Bimestre,Média,Situação",
		`"2024001","Ana Souza",8.0,7.0,9.0,6.5,7.6,Aprovado`,
		`"2024002","Bia Lima",4.0,5.0,,,4.5,Pendente`,
	}, "\n"), rec.Body.String())

	// delete
	runTests(t, []httpTest{
		{name: "Delete requires admin", method: http.MethodDelete, path: "/v1/grades/" + *rowAna.GradeIDs[0], token: getToken(t, prof), wantCode: http.StatusForbidden},
		{name: "Delete", method: http.MethodDelete, path: "/v1/grades/" + *rowAna.GradeIDs[0], token: getToken(t, admin), wantCode: http.StatusNoContent},
		{name: "Delete again", method: http.MethodDelete, path: "/v1/grades/" + *rowAna.GradeIDs[0], token: getToken(t, admin), wantCode: http.StatusNotFound},
	})
}

func Test_gradeApi_import(t *testing.T) {
	db.Reset()

	cls := testutil.CreateClass(t, classRepo, "1º A", testYear, nil)
	sub := testutil.CreateSubject(t, subjectRepo, "Matemática", "MAT", nil)
	testutil.CreateStudent(t, studentRepo, "Ana Souza", "2024001", &cls.ID, "")
	bia := testutil.CreateStudent(t, studentRepo, "Bia Lima", "2024002", &cls.ID, "")
	path := fmt.Sprintf("/v1/grades/import?class_id=%s&subject_id=%s", cls.ID, sub.ID)

	csvBody := []byte(strings.Join([]string{
		"Matrícula,Aluno,1º Bimestre,2º Bimestre,3º Bimestre,4º Bimestre",
		`"2024002","Bia Lima",4,5,"6,0",5`,
		`"9999999","Ghost",7,,,`,
		`"2024001","Ana Souza",abc,,,`,
	}, "\n"))

	rec := serve(http.MethodPost, path, getToken(t, prof), csvBody)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String()) // periods not seeded yet

	rec = serve(http.MethodPost, "/v1/grading-periods/seed", getToken(t, admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	runTests(t, []httpTest{
		{name: "Students cannot import", method: http.MethodPost, path: path, token: getToken(t, learner), body: csvBody, wantCode: http.StatusForbidden},
		{
			name: "Missing columns", method: http.MethodPost, path: path, token: getToken(t, prof),
			body: []byte("Aluno,Nota\nAna,8"), wantCode: http.StatusBadRequest,
		},
	})

	rec = serve(http.MethodPost, path, getToken(t, prof), csvBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report grade.ImportReport
	unmarshal(t, rec, &report)
	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 4, report.Imported)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, 3, report.Errors[0].Line)
	assert.Equal(t, 4, report.Errors[1].Line)

	rec = serve(http.MethodGet, fmt.Sprintf("/v1/grades?class_id=%s&subject_id=%s", cls.ID, sub.ID), getToken(t, prof))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sheet grade.Sheet
	unmarshal(t, rec, &sheet)
	require.Len(t, sheet.Rows, 2)
	rowBia := sheet.Rows[1]
	assert.Equal(t, bia.ID, rowBia.StudentID)
	require.NotNil(t, rowBia.Average)
	assert.Equal(t, 5.0, *rowBia.Average)
	assert.Equal(t, grade.StatusPending, rowBia.Status)
	assert.True(t, rowBia.InRecovery)
}
