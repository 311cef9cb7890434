package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
)

type submissionApi struct {
	svc      assignment.ServiceInterface
	crsSvc   course.ServiceInterface
	validate *validator.Validate
}

func registerSubmissionAPI(
	g *echo.Group,
	svc assignment.ServiceInterface,
	crsSvc course.ServiceInterface,
	validate *validator.Validate,
) {
	api := submissionApi{
		svc:      svc,
		crsSvc:   crsSvc,
		validate: validate,
	}

	sg := g.Group("/submissions", authRequiredMiddleware)
	sg.POST("", api.submit)
	sg.PUT("/:id/grade", api.grade, adminMiddleware)
}

// Handlers

// submit creates or refreshes the student's submission for an assignment:
// at most one per (assignment, student).
func (api *submissionApi) submit(ctx echo.Context) error {
	sess := getContextSession(ctx)
	if !sess.IsStudent() {
		return errHttpForbidden
	}

	var data assignment.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.svc.GetByID(ctx.Request().Context(), data.AssignmentID)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding assignment by ID")
	}

	enrolled, err := api.crsSvc.IsEnrolled(ctx.Request().Context(), sess.UserID, asg.CourseID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return errHttpForbidden
	}

	sub, created, err := api.svc.Submit(ctx.Request().Context(), sess.UserID, data)
	if err != nil {
		return errors.Wrap(err, "submitting")
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, echo.Map{"submission": sub})
}

func (api *submissionApi) grade(ctx echo.Context) error {
	var data assignment.GradeSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.GetSubmissionByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == assignment.ErrSubmissionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding submission by ID")
	}

	sub, err = api.svc.Grade(ctx.Request().Context(), sub.ID, data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"submission": sub})
}
