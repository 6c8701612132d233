package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core/calendar"
	"github.com/trezcool/escola/tests"
)

// freezeToday pins calendar.NowFunc for the duration of the test.
func freezeToday(t *testing.T, date string) {
	today, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	orig := calendar.NowFunc
	calendar.NowFunc = func() time.Time { return today }
	t.Cleanup(func() { calendar.NowFunc = orig })
}

func Test_calendarApi_query(t *testing.T) {
	db.Reset()

	exam := testutil.CreateEvent(t, calendarRepo, "Prova bimestral", calendar.TypeExam, "2024-04-20")
	carnival := testutil.CreateEvent(t, calendarRepo, "Carnaval", calendar.TypeHoliday, "2024-02-12")
	meeting := testutil.CreateEvent(t, calendarRepo, "Reunião de pais", calendar.TypeMeeting, "2024-03-09")
	token := getToken(t, learner)

	runTests(t, []httpTest{
		{name: "Auth required", path: "/v1/calendar/events", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "All by start date", path: "/v1/calendar/events", token: token, wantData: marchallList(t, carnival, meeting, exam)},
		{name: "from", path: "/v1/calendar/events?from=2024-03-01", token: token, wantData: marchallList(t, meeting, exam)},
		{name: "to (inclusive)", path: "/v1/calendar/events?to=2024-03-09", token: token, wantData: marchallList(t, carnival, meeting)},
		{name: "from-to", path: "/v1/calendar/events?from=2024-03-01&to=2024-03-31", token: token, wantData: marchallList(t, meeting)},
		{name: "type", path: "/v1/calendar/events?type=EXAM", token: token, wantData: marchallList(t, exam)},
		{name: "Invalid date", path: "/v1/calendar/events?from=01/03/2024", token: token, wantCode: http.StatusBadRequest},
	})
}

func Test_calendarApi_crud(t *testing.T) {
	db.Reset()
	token := getToken(t, admin)

	runTests(t, []httpTest{
		{
			name: "Admin required", method: http.MethodPost, path: "/v1/calendar/events", token: getToken(t, prof),
			body: []byte(`{"title": "Feira de ciências", "start_date": "2024-09-10"}`), wantCode: http.StatusForbidden,
		},
		{
			name: "End before start", method: http.MethodPost, path: "/v1/calendar/events", token: token,
			body:     []byte(`{"title": "Feira de ciências", "start_date": "2024-09-10", "end_date": "2024-09-09"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"end_date": "end date cannot be before start date"}`),
		},
		{
			name: "Unknown type", method: http.MethodPost, path: "/v1/calendar/events", token: token,
			body: []byte(`{"title": "Feira de ciências", "start_date": "2024-09-10", "event_type": "party"}`), wantCode: http.StatusBadRequest,
		},
	})

	rec := serve(http.MethodPost, "/v1/calendar/events", token, []byte(`{"title": "Feira de ciências", "start_date": "2024-09-10"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var evt calendar.Event
	unmarshal(t, rec, &evt)
	assert.Equal(t, calendar.TypeEvent, evt.EventType)
	assert.True(t, evt.AllDay)

	detail := "/v1/calendar/events/" + evt.ID
	rec = serve(http.MethodPut, detail, token, []byte(`{"end_date": "2024-09-11", "all_day": false}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var upd calendar.Event
	unmarshal(t, rec, &upd)
	assert.Equal(t, evt.Title, upd.Title)
	require.NotNil(t, upd.EndDate)
	assert.Equal(t, "2024-09-11", *upd.EndDate)
	assert.False(t, upd.AllDay)

	runTests(t, []httpTest{
		{name: "Retrieve", path: detail, token: getToken(t, learner), wantData: marchallObj(t, upd)},
		{name: "Delete", method: http.MethodDelete, path: detail, token: token, wantCode: http.StatusNoContent},
		{name: "Gone", path: detail, token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: calendar.ErrNotFound.Error()})},
	})
}
