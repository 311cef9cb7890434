package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

const (
	upcomingAssignmentsLimit     = 10
	recentSubmissionsLimit       = 5
	recentGradingSubmissionLimit = 10
)

type dashboardApi struct {
	usrSvc user.ServiceInterface
	crsSvc course.ServiceInterface
	asgSvc assignment.ServiceInterface
}

func registerDashboardAPI(
	g *echo.Group,
	usrSvc user.ServiceInterface,
	crsSvc course.ServiceInterface,
	asgSvc assignment.ServiceInterface,
) {
	api := dashboardApi{
		usrSvc: usrSvc,
		crsSvc: crsSvc,
		asgSvc: asgSvc,
	}
	g.GET("/dashboard", api.retrieve, authRequiredMiddleware)
}

// AdminStats is the admin dashboard headline counters.
type AdminStats struct {
	TotalStudents      int `json:"totalStudents"`
	TotalCourses       int `json:"totalCourses"`
	TotalAssignments   int `json:"totalAssignments"`
	PendingSubmissions int `json:"pendingSubmissions"`
}

// Handlers

func (api *dashboardApi) retrieve(ctx echo.Context) error {
	if getContextSession(ctx).IsAdmin() {
		return api.adminDashboard(ctx)
	}
	return api.studentDashboard(ctx)
}

func (api *dashboardApi) studentDashboard(ctx echo.Context) error {
	sess := getContextSession(ctx)
	rctx := ctx.Request().Context()

	enrs, err := api.crsSvc.QueryEnrollments(rctx, &course.EnrollmentFilter{UserID: sess.UserID})
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []course.Enrollment{}
	}

	upcoming, err := api.asgSvc.QueryUpcoming(rctx, sess.UserID, upcomingAssignmentsLimit)
	if err != nil {
		return errors.Wrap(err, "querying upcoming assignments")
	}
	if upcoming == nil {
		upcoming = []assignment.Assignment{}
	}

	recent, err := api.asgSvc.QuerySubmissions(rctx, &assignment.SubmissionFilter{
		StudentID: sess.UserID,
		Limit:     recentSubmissionsLimit,
	})
	if err != nil {
		return errors.Wrap(err, "querying recent submissions")
	}
	if recent == nil {
		recent = []assignment.Submission{}
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"enrollments":         enrs,
		"upcomingAssignments": upcoming,
		"recentSubmissions":   recent,
	})
}

func (api *dashboardApi) adminDashboard(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	var stats AdminStats
	var err error
	if stats.TotalStudents, err = api.usrSvc.CountByRole(rctx, user.RoleStudent); err != nil {
		return errors.Wrap(err, "counting students")
	}
	if stats.TotalCourses, err = api.crsSvc.Count(rctx); err != nil {
		return errors.Wrap(err, "counting courses")
	}
	if stats.TotalAssignments, err = api.asgSvc.Count(rctx); err != nil {
		return errors.Wrap(err, "counting assignments")
	}
	if stats.PendingSubmissions, err = api.asgSvc.CountSubmissions(rctx, assignment.StatusSubmitted); err != nil {
		return errors.Wrap(err, "counting pending submissions")
	}

	recent, err := api.asgSvc.QuerySubmissions(rctx, &assignment.SubmissionFilter{
		Status: assignment.StatusSubmitted,
		Limit:  recentGradingSubmissionLimit,
	})
	if err != nil {
		return errors.Wrap(err, "querying recent submissions")
	}
	if recent == nil {
		recent = []assignment.Submission{}
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"stats":             stats,
		"recentSubmissions": recent,
	})
}
