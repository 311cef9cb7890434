package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

func Test_dashboardApi_student(t *testing.T) {
	app, deps := setupServer(t)
	ctx := context.Background()

	student := createUser(t, deps.usrSvc, "Hero", "hero@test.cd", "Passw0rd!", user.RoleStudent)
	other := createUser(t, deps.usrSvc, "Other", "other@test.cd", "Passw0rd!", user.RoleStudent)
	studentCookie := sessionCookie(t, deps.sess, student)

	crs := createCourse(t, deps.crsSvc, "CS101", "Intro to CS")
	otherCrs := createCourse(t, deps.crsSvc, "CS102", "Data Structures")
	enroll(t, deps.crsSvc, student, crs)
	enroll(t, deps.crsSvc, other, otherCrs)

	now := time.Now()
	past := now.Add(-48 * time.Hour)
	soon := now.Add(24 * time.Hour)
	later := now.Add(72 * time.Hour)

	createAssignment(t, deps.asgSvc, crs, "Overdue", &past)
	undated := createAssignment(t, deps.asgSvc, crs, "Open-ended", nil)
	dueLater := createAssignment(t, deps.asgSvc, crs, "Due later", &later)
	dueSoon := createAssignment(t, deps.asgSvc, crs, "Due soon", &soon)
	createAssignment(t, deps.asgSvc, otherCrs, "Not mine", &soon)

	_, _, err := deps.asgSvc.Submit(ctx, student.ID, assignment.NewSubmission{AssignmentID: dueSoon.ID, Content: "done"})
	require.NoError(t, err)

	req, rec := newRequest(http.MethodGet, "/api/dashboard", studentCookie)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Enrollments         []course.Enrollment     `json:"enrollments"`
		UpcomingAssignments []assignment.Assignment `json:"upcomingAssignments"`
		RecentSubmissions   []assignment.Submission `json:"recentSubmissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// envelope keys are part of the contract
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"enrollments", "upcomingAssignments", "recentSubmissions"} {
		assert.Contains(t, raw, key)
	}

	require.Len(t, resp.Enrollments, 1)
	assert.Equal(t, crs.ID, resp.Enrollments[0].CourseID)

	// overdue and other-course assignments are out; due date ascending, undated last
	require.Len(t, resp.UpcomingAssignments, 3)
	assert.Equal(t, dueSoon.ID, resp.UpcomingAssignments[0].ID)
	assert.Equal(t, dueLater.ID, resp.UpcomingAssignments[1].ID)
	assert.Equal(t, undated.ID, resp.UpcomingAssignments[2].ID)

	// the student's own submission rides along on the upcoming assignment
	require.NotNil(t, resp.UpcomingAssignments[0].Submission)
	assert.Equal(t, student.ID, resp.UpcomingAssignments[0].Submission.StudentID)
	assert.Nil(t, resp.UpcomingAssignments[1].Submission)

	require.Len(t, resp.RecentSubmissions, 1)
	assert.Equal(t, dueSoon.ID, resp.RecentSubmissions[0].AssignmentID)
}

func Test_dashboardApi_student_limits(t *testing.T) {
	app, deps := setupServer(t)
	ctx := context.Background()

	student := createUser(t, deps.usrSvc, "Hero", "hero@test.cd", "Passw0rd!", user.RoleStudent)
	studentCookie := sessionCookie(t, deps.sess, student)

	crs := createCourse(t, deps.crsSvc, "CS101", "Intro to CS")
	enroll(t, deps.crsSvc, student, crs)

	for i := 0; i < upcomingAssignmentsLimit+2; i++ {
		due := time.Now().Add(time.Duration(i+1) * time.Hour)
		asg := createAssignment(t, deps.asgSvc, crs, "HW", &due)
		if i < recentSubmissionsLimit+2 {
			_, _, err := deps.asgSvc.Submit(ctx, student.ID, assignment.NewSubmission{AssignmentID: asg.ID, Content: "x"})
			require.NoError(t, err)
		}
	}

	req, rec := newRequest(http.MethodGet, "/api/dashboard", studentCookie)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		UpcomingAssignments []assignment.Assignment `json:"upcomingAssignments"`
		RecentSubmissions   []assignment.Submission `json:"recentSubmissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.UpcomingAssignments, upcomingAssignmentsLimit)
	assert.Len(t, resp.RecentSubmissions, recentSubmissionsLimit)
}

func Test_dashboardApi_admin(t *testing.T) {
	app, deps := setupServer(t)
	ctx := context.Background()

	admin := createUser(t, deps.usrSvc, "Admin", "admin@test.cd", "Adm1n-pass", user.RoleAdmin)
	stu1 := createUser(t, deps.usrSvc, "One", "one@test.cd", "Passw0rd!", user.RoleStudent)
	stu2 := createUser(t, deps.usrSvc, "Two", "two@test.cd", "Passw0rd!", user.RoleStudent)
	adminCookie := sessionCookie(t, deps.sess, admin)

	crs := createCourse(t, deps.crsSvc, "CS101", "Intro to CS")
	enroll(t, deps.crsSvc, stu1, crs)
	enroll(t, deps.crsSvc, stu2, crs)
	asg1 := createAssignment(t, deps.asgSvc, crs, "Homework 1", nil)
	asg2 := createAssignment(t, deps.asgSvc, crs, "Homework 2", nil)

	sub1, _, err := deps.asgSvc.Submit(ctx, stu1.ID, assignment.NewSubmission{AssignmentID: asg1.ID, Content: "a"})
	require.NoError(t, err)
	_, _, err = deps.asgSvc.Submit(ctx, stu2.ID, assignment.NewSubmission{AssignmentID: asg2.ID, Content: "b"})
	require.NoError(t, err)

	// graded submissions are no longer pending
	grade := 90
	_, err = deps.asgSvc.Grade(ctx, sub1.ID, assignment.GradeSubmission{Grade: &grade})
	require.NoError(t, err)

	req, rec := newRequest(http.MethodGet, "/api/dashboard", adminCookie)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Stats             AdminStats              `json:"stats"`
		RecentSubmissions []assignment.Submission `json:"recentSubmissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Stats.TotalStudents) // the admin does not count
	assert.Equal(t, 1, resp.Stats.TotalCourses)
	assert.Equal(t, 2, resp.Stats.TotalAssignments)
	assert.Equal(t, 1, resp.Stats.PendingSubmissions)

	require.Len(t, resp.RecentSubmissions, 1)
	assert.Equal(t, assignment.StatusSubmitted, resp.RecentSubmissions[0].Status)
	assert.Equal(t, stu2.ID, resp.RecentSubmissions[0].StudentID)

	// counter key casing is part of the contract
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	var stats map[string]int
	require.NoError(t, json.Unmarshal(raw["stats"], &stats))
	for _, key := range []string{"totalStudents", "totalCourses", "totalAssignments", "pendingSubmissions"} {
		assert.Contains(t, stats, key)
	}
}

func Test_dashboardApi_admin_gradingFeedOrder(t *testing.T) {
	app, deps := setupServer(t)
	ctx := context.Background()

	admin := createUser(t, deps.usrSvc, "Admin", "admin@test.cd", "Adm1n-pass", user.RoleAdmin)
	stu1 := createUser(t, deps.usrSvc, "One", "one@test.cd", "Passw0rd!", user.RoleStudent)
	stu2 := createUser(t, deps.usrSvc, "Two", "two@test.cd", "Passw0rd!", user.RoleStudent)
	adminCookie := sessionCookie(t, deps.sess, admin)

	crs := createCourse(t, deps.crsSvc, "CS101", "Intro to CS")
	enroll(t, deps.crsSvc, stu1, crs)
	enroll(t, deps.crsSvc, stu2, crs)
	asg := createAssignment(t, deps.asgSvc, crs, "Homework", nil)

	_, _, err := deps.asgSvc.Submit(ctx, stu1.ID, assignment.NewSubmission{AssignmentID: asg.ID, Content: "first"})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, _, err = deps.asgSvc.Submit(ctx, stu2.ID, assignment.NewSubmission{AssignmentID: asg.ID, Content: "second"})
	require.NoError(t, err)

	// a resubmission refreshes the record but keeps its place in the queue
	time.Sleep(time.Millisecond)
	_, created, err := deps.asgSvc.Submit(ctx, stu1.ID, assignment.NewSubmission{AssignmentID: asg.ID, Content: "first, take two"})
	require.NoError(t, err)
	require.False(t, created)

	req, rec := newRequest(http.MethodGet, "/api/dashboard", adminCookie)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		RecentSubmissions []assignment.Submission `json:"recentSubmissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.RecentSubmissions, 2)
	assert.Equal(t, stu2.ID, resp.RecentSubmissions[0].StudentID)
	assert.Equal(t, stu1.ID, resp.RecentSubmissions[1].StudentID)
}
