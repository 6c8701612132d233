package tests

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core/classroom"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/tests"
)

func Test_studentApi_query(t *testing.T) {
	db.Reset()

	cls := testutil.CreateClass(t, classRepo, "1º A", testYear, nil)
	ana := testutil.CreateStudent(t, studentRepo, "Ana Souza", "2024001", &cls.ID, "")
	bia := testutil.CreateStudent(t, studentRepo, "Bia Lima", "2024002", nil, student.StatusInactive)
	caio := testutil.CreateStudent(t, studentRepo, "Caio Alves", "2024003", &cls.ID, "")

	path := func(params map[string]string) string {
		v := make(url.Values)
		for k, p := range params {
			v.Add(k, p)
		}
		return "/v1/students?" + v.Encode()
	}
	token := getToken(t, prof)

	runTests(t, []httpTest{
		{name: "Get all", path: "/v1/students", token: token, wantData: marchallList(t, ana, bia, caio)},
		{name: "search by registration", path: path(map[string]string{"search": "2024002"}), token: token, wantData: marchallList(t, bia)},
		{name: "class_id", path: path(map[string]string{"class_id": cls.ID}), token: token, wantData: marchallList(t, ana, caio)},
		{name: "status", path: path(map[string]string{"status": "INACTIVE"}), token: token, wantData: marchallList(t, bia)},
		{name: "order by -full_name", path: path(map[string]string{"ordering": "-full_name"}), token: token, wantData: marchallList(t, caio, bia, ana)},
	})
}

func Test_studentApi_create(t *testing.T) {
	db.Reset()

	full := testutil.CreateClass(t, classRepo, "1º A", testYear, testutil.IntPtr(1))
	open := testutil.CreateClass(t, classRepo, "1º B", testYear, testutil.IntPtr(30))
	testutil.CreateStudent(t, studentRepo, "Ana Souza", "2024001", &full.ID, "")
	token := getToken(t, admin)

	runTests(t, []httpTest{
		{
			name: "Admin required", method: http.MethodPost, path: "/v1/students", token: getToken(t, prof),
			body: []byte(`{"full_name": "Bia", "registration_number": "2024002"}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPerms),
		},
		{
			name: "Registration taken", method: http.MethodPost, path: "/v1/students", token: token,
			body:     []byte(`{"full_name": "Bia", "registration_number": "2024001"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"registration_number": "` + student.ErrRegistrationExists.Error() + `"}`),
		},
		{
			name: "Invalid birth date", method: http.MethodPost, path: "/v1/students", token: token,
			body: []byte(`{"full_name": "Bia", "registration_number": "2024002", "birth_date": "31/12/2010"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "Unknown class", method: http.MethodPost, path: "/v1/students", token: token,
			body:     []byte(`{"full_name": "Bia", "registration_number": "2024002", "class_id": "` + testutil.UnknownID + `"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"class_id": "` + classroom.ErrNotFound.Error() + `"}`),
		},
		{
			name: "Class full", method: http.MethodPost, path: "/v1/students", token: token,
			body:     []byte(`{"full_name": "Bia", "registration_number": "2024002", "class_id": "` + full.ID + `"}`),
			wantCode: http.StatusUnprocessableEntity, wantData: marchallObj(t, httpErr{Error: classroom.ErrFull.Error()}),
		},
	})

	rec := serve(http.MethodPost, "/v1/students", token, []byte(`{
		"full_name": "Bia Lima", "registration_number": "2024002", "class_id": "`+open.ID+`",
		"email": "BIA@Escola.test", "birth_date": "2010-12-31"
	}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var std student.Student
	unmarshal(t, rec, &std)
	assert.Equal(t, student.StatusActive, std.Status)
	require.NotNil(t, std.Email)
	assert.Equal(t, "bia@escola.test", *std.Email)
	require.NotNil(t, std.ClassID)
	assert.Equal(t, open.ID, *std.ClassID)
}

func Test_studentApi_update(t *testing.T) {
	db.Reset()

	full := testutil.CreateClass(t, classRepo, "1º A", testYear, testutil.IntPtr(1))
	ana := testutil.CreateStudent(t, studentRepo, "Ana Souza", "2024001", &full.ID, "")
	bia := testutil.CreateStudent(t, studentRepo, "Bia Lima", "2024002", nil, "")
	token := getToken(t, admin)

	// staying in a full class does not need a seat
	rec := serve(http.MethodPut, "/v1/students/"+ana.ID, token, []byte(`{"status": "graduated"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var upd student.Student
	unmarshal(t, rec, &upd)
	assert.Equal(t, student.StatusGraduated, upd.Status)
	assert.Equal(t, ana.FullName, upd.FullName)
	require.NotNil(t, upd.ClassID)
	assert.Equal(t, full.ID, *upd.ClassID)

	// moving into it does
	rec = serve(http.MethodPut, "/v1/students/"+bia.ID, token, []byte(`{"class_id": "`+full.ID+`"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func Test_studentApi_destroy(t *testing.T) {
	db.Reset()

	ana := testutil.CreateStudent(t, studentRepo, "Ana Souza", "2024001", nil, "")
	bia := testutil.CreateStudent(t, studentRepo, "Bia Lima", "2024002", nil, "")
	caio := testutil.CreateStudent(t, studentRepo, "Caio Alves", "2024003", nil, "")
	token := getToken(t, admin)

	rec := serve(http.MethodDelete, "/v1/students/"+ana.ID, getToken(t, learner))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(http.MethodDelete, "/v1/students/"+ana.ID, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	v := make(url.Values)
	v.Add("id", bia.ID)
	v.Add("id", testutil.UnknownID)
	rec = serve(http.MethodDelete, "/v1/students?"+v.Encode(), token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	runTests(t, []httpTest{
		{name: "Only the untouched student is left", path: "/v1/students", token: token, wantData: marchallList(t, caio)},
	})
}
