package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

func Test_courseApi_guards(t *testing.T) {
	app, deps := setupServer(t)

	student := createUser(t, deps.usrSvc, "Hero", "hero@test.cd", "Passw0rd!", user.RoleStudent)
	studentCookie := sessionCookie(t, deps.sess, student)

	unauthorized := marshallObj(t, httpErr{Error: "authentication required"})
	forbidden := marshallObj(t, httpErr{Error: "permission denied"})

	tests := []httpTest{
		{name: "courses: auth required", method: http.MethodGet, path: "/api/courses", wantCode: http.StatusUnauthorized, wantData: unauthorized},
		{name: "create course: admin required", method: http.MethodPost, path: "/api/courses", cookie: studentCookie,
			body: []byte(`{"code": "CS101", "name": "Intro"}`), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "update course: admin required", method: http.MethodPut, path: "/api/courses/x", cookie: studentCookie,
			wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "delete course: admin required", method: http.MethodDelete, path: "/api/courses/x", cookie: studentCookie,
			wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "users: admin required", method: http.MethodGet, path: "/api/users", cookie: studentCookie,
			wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "users: auth required", method: http.MethodGet, path: "/api/users", wantCode: http.StatusUnauthorized, wantData: unauthorized},
		{name: "enroll: admin required", method: http.MethodPost, path: "/api/enrollments", cookie: studentCookie,
			wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "unenroll: admin required", method: http.MethodDelete, path: "/api/enrollments/x", cookie: studentCookie,
			wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "dashboard: auth required", method: http.MethodGet, path: "/api/dashboard", wantCode: http.StatusUnauthorized, wantData: unauthorized},
		{name: "uploads: auth required", method: http.MethodPost, path: "/api/uploads", wantCode: http.StatusUnauthorized, wantData: unauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.cookie, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_crud(t *testing.T) {
	app, deps := setupServer(t)

	admin := createUser(t, deps.usrSvc, "Admin", "admin@test.cd", "Adm1n-pass", user.RoleAdmin)
	adminCookie := sessionCookie(t, deps.sess, admin)

	t.Run("create", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/courses", adminCookie,
			[]byte(`{"code": "CS101", "name": "Intro to CS", "description": "Basics"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			Course course.Course `json:"course"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "CS101", resp.Course.Code)
		assert.Equal(t, "Basics", resp.Course.Description.String)
		assert.NotEmpty(t, resp.Course.ID)
	})

	t.Run("duplicate code", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/courses", adminCookie,
			[]byte(`{"code": "CS101", "name": "Another Intro"}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"code": "a course with this code already exists"}`, rec.Body.String())
	})

	t.Run("invalid code characters", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/courses", adminCookie,
			[]byte(`{"code": "CS@101", "name": "Bad Code"}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"code": "only alphanumeric characters and underscores are allowed"}`, rec.Body.String())
	})

	t.Run("update duplicate code", func(t *testing.T) {
		other := createCourse(t, deps.crsSvc, "CS102", "Data Structures")
		req, rec := newRequest(http.MethodPut, "/api/courses/"+other.ID, adminCookie,
			[]byte(`{"code": "CS101"}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"code": "a course with this code already exists"}`, rec.Body.String())
	})

	t.Run("update", func(t *testing.T) {
		crs := createCourse(t, deps.crsSvc, "CS103", "Old Name")
		req, rec := newRequest(http.MethodPut, "/api/courses/"+crs.ID, adminCookie,
			[]byte(`{"name": "New Name"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Course course.Course `json:"course"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "New Name", resp.Course.Name)
		assert.Equal(t, "CS103", resp.Course.Code) // unchanged
	})

	t.Run("unknown course is 404", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/courses/1a55a503-7a3d-4dd1-8322-aab09acf55e2", adminCookie)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is 404", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/courses/not-a-uuid", adminCookie)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		crs := createCourse(t, deps.crsSvc, "CS199", "Doomed")
		req, rec := newRequest(http.MethodDelete, "/api/courses/"+crs.ID, adminCookie)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		if _, err := deps.crsSvc.GetByID(context.Background(), crs.ID); err == nil {
			t.Error("course should be gone")
		}
	})
}

func Test_courseApi_enrollments(t *testing.T) {
	app, deps := setupServer(t)

	admin := createUser(t, deps.usrSvc, "Admin", "admin@test.cd", "Adm1n-pass", user.RoleAdmin)
	student := createUser(t, deps.usrSvc, "Hero", "hero@test.cd", "Passw0rd!", user.RoleStudent)
	other := createUser(t, deps.usrSvc, "Other", "other@test.cd", "Passw0rd!", user.RoleStudent)
	adminCookie := sessionCookie(t, deps.sess, admin)
	studentCookie := sessionCookie(t, deps.sess, student)

	crs := createCourse(t, deps.crsSvc, "CS101", "Intro to CS")

	enrollBody := marshallObj(t, course.NewEnrollment{UserID: student.ID, CourseID: crs.ID})

	t.Run("enroll", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/enrollments", adminCookie, enrollBody)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("duplicate enrollment is a validation error", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/enrollments", adminCookie, enrollBody)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "student is already enrolled in this course"}`, rec.Body.String())

		// still exactly one row
		enrs, err := deps.crsSvc.QueryEnrollments(context.Background(), &course.EnrollmentFilter{UserID: student.ID, CourseID: crs.ID})
		require.NoError(t, err)
		assert.Len(t, enrs, 1)
	})

	t.Run("cannot enroll an admin", func(t *testing.T) {
		body := marshallObj(t, course.NewEnrollment{UserID: admin.ID, CourseID: crs.ID})
		req, rec := newRequest(http.MethodPost, "/api/enrollments", adminCookie, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"user_id": "only students can be enrolled"}`, rec.Body.String())
	})

	t.Run("unknown user is 404", func(t *testing.T) {
		body := marshallObj(t, course.NewEnrollment{UserID: "1a55a503-7a3d-4dd1-8322-aab09acf55e2", CourseID: crs.ID})
		req, rec := newRequest(http.MethodPost, "/api/enrollments", adminCookie, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown course is 404", func(t *testing.T) {
		body := marshallObj(t, course.NewEnrollment{UserID: other.ID, CourseID: "1a55a503-7a3d-4dd1-8322-aab09acf55e2"})
		req, rec := newRequest(http.MethodPost, "/api/enrollments", adminCookie, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("students only see their own enrollments", func(t *testing.T) {
		enroll(t, deps.crsSvc, other, crs)

		req, rec := newRequest(http.MethodGet, "/api/enrollments", studentCookie)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Enrollments []course.Enrollment `json:"enrollments"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Enrollments, 1)
		assert.Equal(t, student.ID, resp.Enrollments[0].UserID)

		// admin sees all
		req, rec = newRequest(http.MethodGet, "/api/enrollments", adminCookie)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Enrollments, 2)
	})
}
