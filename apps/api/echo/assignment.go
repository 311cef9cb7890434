package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
)

var errCourseIDRequired = "this field is required"

type assignmentApi struct {
	svc      assignment.ServiceInterface
	crsSvc   course.ServiceInterface
	validate *validator.Validate
}

func registerAssignmentAPI(
	g *echo.Group,
	svc assignment.ServiceInterface,
	crsSvc course.ServiceInterface,
	validate *validator.Validate,
) {
	api := assignmentApi{
		svc:      svc,
		crsSvc:   crsSvc,
		validate: validate,
	}

	ag := g.Group("/assignments", authRequiredMiddleware)
	ag.GET("", api.query)
	ag.POST("", api.create, adminMiddleware)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, adminMiddleware)
	ag.DELETE("/:id", api.destroy, adminMiddleware)
}

// Handlers

func (api *assignmentApi) query(ctx echo.Context) error {
	sess := getContextSession(ctx)

	filter := new(assignment.AssignmentFilter)
	if err := ctx.Bind(filter); err != nil {
		filter = new(assignment.AssignmentFilter)
	}

	if filter.CourseID == "" {
		// only admins may list across courses
		if !sess.IsAdmin() {
			return core.NewValidationError(nil, core.FieldError{Field: "course_id", Error: errCourseIDRequired})
		}
	} else if !sess.IsAdmin() {
		enrolled, err := api.crsSvc.IsEnrolled(ctx.Request().Context(), sess.UserID, filter.CourseID)
		if err != nil {
			return errors.Wrap(err, "checking enrollment")
		}
		if !enrolled {
			return errHttpForbidden
		}
	}

	asgs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"assignments": asgs})
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.crsSvc.GetByID(ctx.Request().Context(), data.CourseID); err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}

	asg, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"assignment": asg})
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	sess := getContextSession(ctx)

	asg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding assignment by ID")
	}

	if sess.IsAdmin() {
		subs, err := api.svc.QuerySubmissions(ctx.Request().Context(), &assignment.SubmissionFilter{AssignmentID: asg.ID})
		if err != nil {
			return errors.Wrap(err, "querying submissions")
		}
		if subs == nil {
			subs = []assignment.Submission{}
		}
		asg.Submissions = subs
		return ctx.JSON(http.StatusOK, echo.Map{"assignment": asg})
	}

	// students must be enrolled and only see their own submission
	enrolled, err := api.crsSvc.IsEnrolled(ctx.Request().Context(), sess.UserID, asg.CourseID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return errHttpForbidden
	}

	sub, err := api.svc.QuerySubmissions(ctx.Request().Context(), &assignment.SubmissionFilter{
		AssignmentID: asg.ID,
		StudentID:    sess.UserID,
	})
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	asg.Submissions = sub
	if asg.Submissions == nil {
		asg.Submissions = []assignment.Submission{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"assignment": asg})
}

func (api *assignmentApi) update(ctx echo.Context) error {
	asg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding assignment by ID")
	}

	var data assignment.UpdateAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err = data.Validate(api.validate, asg); err != nil {
		return err
	}

	asg, err = api.svc.Update(ctx.Request().Context(), asg, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"assignment": asg})
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	asg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding assignment by ID")
	}

	if err = api.svc.Delete(ctx.Request().Context(), asg.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": "assignment deleted"})
}
