package tests

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core/subject"
	"github.com/trezcool/escola/tests"
)

func Test_subjectApi_query(t *testing.T) {
	db.Reset()

	path := func(search, ordering string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		return "/v1/subjects?" + v.Encode()
	}

	now := time.Now()
	math := testutil.CreateSubject(t, subjectRepo, "Matemática", "MAT", testutil.IntPtr(250), now)
	port := testutil.CreateSubject(t, subjectRepo, "Português", "POR", testutil.IntPtr(200), now.Add(time.Hour))
	hist := testutil.CreateSubject(t, subjectRepo, "História", "HIS", nil, now.Add(2*time.Hour))

	token := getToken(t, learner)

	runTests(t, []httpTest{
		{name: "Auth required", path: "/v1/subjects", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get all", path: "/v1/subjects", token: token, wantData: marchallList(t, hist, math, port)},
		{name: "search (unknown)", path: path("lol", ""), token: token, wantData: marchallList(t)},
		{name: "search=mat", path: path("mat", ""), token: token, wantData: marchallList(t, math)},
		{name: "order by -created_at", path: path("", "-created_at"), token: token, wantData: marchallList(t, hist, port, math)},
		{name: "order by code", path: path("", "code"), token: token, wantData: marchallList(t, hist, math, port)},
		{name: "unknown ordering is ignored", path: path("", "password"), token: token, wantData: marchallList(t, hist, math, port)},
	})
}

func Test_subjectApi_create(t *testing.T) {
	db.Reset()

	testutil.CreateSubject(t, subjectRepo, "Matemática", "MAT", nil)

	runTests(t, []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/v1/subjects", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", method: http.MethodPost, path: "/v1/subjects", token: getToken(t, prof),
			body: []byte(`{"name": "Física", "code": "FIS"}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPerms),
		},
		{
			name: "Required fields", method: http.MethodPost, path: "/v1/subjects", token: getToken(t, admin), body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"name": "this field is required", "code": "this field is required"}`),
		},
		{
			name: "Code taken", method: http.MethodPost, path: "/v1/subjects", token: getToken(t, admin),
			body:     []byte(`{"name": "Matemática II", "code": "MAT"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"code": "` + subject.ErrCodeExists.Error() + `"}`),
		},
	})

	rec := serve(http.MethodPost, "/v1/subjects", getToken(t, admin), []byte(`{"name": "  Física ", "code": "FIS", "weekly_minutes": 100, "color": "#AABBCC"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sub subject.Subject
	unmarshal(t, rec, &sub)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "Física", sub.Name)
	require.NotNil(t, sub.Color)
	assert.Equal(t, "#aabbcc", *sub.Color)
	require.NotNil(t, sub.WeeklyMinutes)
	assert.Equal(t, 100, *sub.WeeklyMinutes)
}

func Test_subjectApi_detail(t *testing.T) {
	db.Reset()

	math := testutil.CreateSubject(t, subjectRepo, "Matemática", "MAT", testutil.IntPtr(250))
	testutil.CreateSubject(t, subjectRepo, "Português", "POR", nil)
	detail := "/v1/subjects/" + math.ID
	notFound := marchallObj(t, httpErr{Error: subject.ErrNotFound.Error()})

	runTests(t, []httpTest{
		{name: "Retrieve", path: detail, token: getToken(t, learner), wantData: marchallObj(t, math)},
		{name: "Retrieve unknown", path: "/v1/subjects/unknown", token: getToken(t, learner), wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "Update requires admin", method: http.MethodPut, path: detail, token: getToken(t, prof),
			body: []byte(`{"name": "Matemática I"}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPerms),
		},
		{
			name: "Update to a taken code", method: http.MethodPut, path: detail, token: getToken(t, admin),
			body: []byte(`{"code": "POR"}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"code": "` + subject.ErrCodeExists.Error() + `"}`),
		},
	})

	rec := serve(http.MethodPut, detail, getToken(t, admin), []byte(`{"name": "Matemática I"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var upd subject.Subject
	unmarshal(t, rec, &upd)
	assert.Equal(t, "Matemática I", upd.Name)
	assert.Equal(t, "MAT", upd.Code) // blank fields are kept
	assert.Equal(t, math.WeeklyMinutes, upd.WeeklyMinutes)

	rec = serve(http.MethodDelete, detail, getToken(t, admin))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = serve(http.MethodGet, detail, getToken(t, admin))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
