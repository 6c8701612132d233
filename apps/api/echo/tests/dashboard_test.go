package tests

import (
	"net/http"
	"testing"

	echoapi "github.com/trezcool/escola/apps/api/echo"
	"github.com/trezcool/escola/core/calendar"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/tests"
)

func Test_dashboardApi(t *testing.T) {
	db.Reset()
	freezeToday(t, "2024-03-01")

	cls := testutil.CreateClass(t, classRepo, "1º A", testYear, nil)
	testutil.CreateStudent(t, studentRepo, "Ana Souza", "2024001", &cls.ID, "")
	testutil.CreateStudent(t, studentRepo, "Bia Lima", "2024002", nil, student.StatusInactive)
	testutil.CreateSubject(t, subjectRepo, "Matemática", "MAT", nil)
	testutil.CreateSubject(t, subjectRepo, "Português", "POR", nil)
	testutil.CreateTeacher(t, teacherRepo, "Carla", "carla@escola.test")

	testutil.CreateEvent(t, calendarRepo, "Carnaval", calendar.TypeHoliday, "2024-02-12")
	var upcoming []calendar.Event
	for _, date := range []string{"2024-03-01", "2024-03-09", "2024-04-02", "2024-04-20", "2024-05-01", "2024-06-10"} {
		upcoming = append(upcoming, testutil.CreateEvent(t, calendarRepo, "Evento "+date, calendar.TypeEvent, date))
	}

	runTests(t, []httpTest{
		{name: "Auth required", path: "/v1/dashboard", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Counts and next events", path: "/v1/dashboard", token: getToken(t, learner),
			wantData: marchallObj(t, echoapi.DashboardResponse{
				ActiveStudents: 1,
				ActiveTeachers: 1,
				Classes:        1,
				Subjects:       2,
				UpcomingEvents: upcoming[:5],
			}),
		},
	})
}
