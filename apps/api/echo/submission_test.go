package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
)

func Test_submissionApi_submit(t *testing.T) {
	app, deps := setupServer(t)

	admin := createUser(t, deps.usrSvc, "Admin", "admin@test.cd", "Adm1n-pass", user.RoleAdmin)
	student := createUser(t, deps.usrSvc, "Hero", "hero@test.cd", "Passw0rd!", user.RoleStudent)
	outsider := createUser(t, deps.usrSvc, "Out", "out@test.cd", "Passw0rd!", user.RoleStudent)
	adminCookie := sessionCookie(t, deps.sess, admin)
	studentCookie := sessionCookie(t, deps.sess, student)
	outsiderCookie := sessionCookie(t, deps.sess, outsider)

	crs := createCourse(t, deps.crsSvc, "CS101", "Intro to CS")
	enroll(t, deps.crsSvc, student, crs)
	asg := createAssignment(t, deps.asgSvc, crs, "Homework 1", nil)

	submitBody := func(content string) []byte {
		return marshallObj(t, assignment.NewSubmission{AssignmentID: asg.ID, Content: content})
	}

	t.Run("admins cannot submit", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/submissions", adminCookie, submitBody("nope"))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("not enrolled", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/submissions", outsiderCookie, submitBody("sneaky"))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown assignment is 404", func(t *testing.T) {
		body := marshallObj(t, assignment.NewSubmission{AssignmentID: "1a55a503-7a3d-4dd1-8322-aab09acf55e2", Content: "hi"})
		req, rec := newRequest(http.MethodPost, "/api/submissions", studentCookie, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("first submission creates", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/submissions", studentCookie, submitBody("first draft"))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			Submission assignment.Submission `json:"submission"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, assignment.StatusSubmitted, resp.Submission.Status)
		assert.Equal(t, "first draft", resp.Submission.Content.String)
	})

	t.Run("resubmission updates in place", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/submissions", studentCookie, submitBody("final draft"))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Submission assignment.Submission `json:"submission"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "final draft", resp.Submission.Content.String)

		// exactly one row, holding the latest content
		subs, err := deps.asgSvc.QuerySubmissions(context.Background(), &assignment.SubmissionFilter{AssignmentID: asg.ID})
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "final draft", subs[0].Content.String)
		assert.Equal(t, assignment.StatusSubmitted, subs[0].Status)
	})
}

func Test_submissionApi_grade(t *testing.T) {
	app, deps := setupServer(t)

	admin := createUser(t, deps.usrSvc, "Admin", "admin@test.cd", "Adm1n-pass", user.RoleAdmin)
	student := createUser(t, deps.usrSvc, "Hero", "hero@test.cd", "Passw0rd!", user.RoleStudent)
	adminCookie := sessionCookie(t, deps.sess, admin)
	studentCookie := sessionCookie(t, deps.sess, student)

	crs := createCourse(t, deps.crsSvc, "CS101", "Intro to CS")
	enroll(t, deps.crsSvc, student, crs)
	asg := createAssignment(t, deps.asgSvc, crs, "Homework 1", nil)

	sub, _, err := deps.asgSvc.Submit(context.Background(), student.ID, assignment.NewSubmission{
		AssignmentID: asg.ID,
		Content:      "my answer",
	})
	require.NoError(t, err)

	gradePath := "/api/submissions/" + sub.ID + "/grade"

	t.Run("admin required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, gradePath, studentCookie, []byte(`{"grade": 80}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("grade out of bounds", func(t *testing.T) {
		for _, body := range []string{`{"grade": 101}`, `{"grade": -1}`} {
			req, rec := newRequest(http.MethodPut, gradePath, adminCookie, []byte(body))
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
		// nothing persisted
		got, err := deps.asgSvc.GetSubmissionByID(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.False(t, got.Grade.Valid)
		assert.Equal(t, assignment.StatusSubmitted, got.Status)
	})

	t.Run("missing grade", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, gradePath, adminCookie, []byte(`{"feedback": "where is it?"}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"grade": "this field is required"}`, rec.Body.String())
	})

	t.Run("grade", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, gradePath, adminCookie, []byte(`{"grade": 85, "feedback": "Good work"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Submission assignment.Submission `json:"submission"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, assignment.StatusGraded, resp.Submission.Status)
		assert.EqualValues(t, 85, resp.Submission.Grade.Int)
		assert.Equal(t, "Good work", resp.Submission.Feedback.String)
	})

	t.Run("re-grade overwrites", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, gradePath, adminCookie, []byte(`{"grade": 0, "feedback": "Re-checked"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got, err := deps.asgSvc.GetSubmissionByID(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.True(t, got.Grade.Valid)
		assert.EqualValues(t, 0, got.Grade.Int)
	})

	t.Run("edge grades accepted", func(t *testing.T) {
		for _, body := range []string{`{"grade": 0}`, `{"grade": 100}`} {
			req, rec := newRequest(http.MethodPut, gradePath, adminCookie, []byte(body))
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code, body)
		}
	})

	t.Run("unknown submission is 404", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, "/api/submissions/1a55a503-7a3d-4dd1-8322-aab09acf55e2/grade", adminCookie, []byte(`{"grade": 50}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("resubmission clears the grade", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/submissions", studentCookie,
			marshallObj(t, assignment.NewSubmission{AssignmentID: asg.ID, Content: "take two"}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got, err := deps.asgSvc.GetSubmissionByID(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.False(t, got.Grade.Valid)
		assert.False(t, got.Feedback.Valid)
		assert.Equal(t, assignment.StatusSubmitted, got.Status)
	})
}
