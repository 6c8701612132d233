package tests

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/calendar"
	"github.com/trezcool/escola/core/notification"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/tests"
)

func listNotifications(t *testing.T, token string) []notification.Notification {
	rec := serve(http.MethodGet, "/v1/notifications", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var items []notification.Notification
	unmarshal(t, rec, &items)
	return items
}

func Test_notificationApi(t *testing.T) {
	db.Reset()
	freezeToday(t, "2024-03-01")

	testutil.CreateStudent(t, studentRepo, "Bia Lima", "2024002", nil, student.StatusInactive)
	testutil.CreateEvent(t, calendarRepo, "Carnaval", calendar.TypeHoliday, "2024-02-12") // past
	testutil.CreateEvent(t, calendarRepo, "Reunião de pais", calendar.TypeMeeting, "2024-03-09")

	// the board outlives db.Reset, so every run needs unseeded principals
	boss := core.Principal{ID: uuid.New().String(), Roles: []string{core.RoleAdmin}}
	pupil := core.Principal{ID: uuid.New().String(), Roles: []string{core.RoleStudent}}
	bossToken, pupilToken := getToken(t, boss), getToken(t, pupil)

	items := listNotifications(t, bossToken)
	require.Len(t, items, 2)
	assert.Equal(t, notification.TypeEnrollment, items[0].Type)
	assert.Equal(t, notification.TypeCalendar, items[1].Type)
	assert.Equal(t, "Reunião de pais", items[1].Title)

	pupilItems := listNotifications(t, pupilToken)
	require.Len(t, pupilItems, 1)
	assert.Equal(t, notification.TypeCalendar, pupilItems[0].Type)

	runTests(t, []httpTest{
		{name: "Auth required", path: "/v1/notifications", wantCode: http.StatusUnauthorized},
		{name: "Dismiss", method: http.MethodDelete, path: "/v1/notifications/" + items[0].ID, token: bossToken, wantCode: http.StatusNoContent},
		{name: "Dismiss again", method: http.MethodDelete, path: "/v1/notifications/" + items[0].ID, token: bossToken, wantCode: http.StatusNotFound},
		{name: "Not someone else's", method: http.MethodDelete, path: "/v1/notifications/" + items[1].ID, token: pupilToken, wantCode: http.StatusNotFound},
	})

	// new data does not re-seed a principal
	testutil.CreateStudent(t, studentRepo, "Caio Alves", "2024003", nil, student.StatusInactive)
	items = listNotifications(t, bossToken)
	require.Len(t, items, 1)
	assert.Equal(t, notification.TypeCalendar, items[0].Type)
}
