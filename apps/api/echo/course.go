package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

var errEnrolleeNotStudent = "only students can be enrolled"

type courseApi struct {
	svc      course.ServiceInterface
	asgSvc   assignment.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerCourseAPI(
	g *echo.Group,
	svc course.ServiceInterface,
	asgSvc assignment.ServiceInterface,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := courseApi{
		svc:      svc,
		asgSvc:   asgSvc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	cg := g.Group("/courses", authRequiredMiddleware)
	cg.GET("", api.query)
	cg.POST("", api.create, adminMiddleware)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update, adminMiddleware)
	cg.DELETE("/:id", api.destroy, adminMiddleware)

	eg := g.Group("/enrollments", authRequiredMiddleware)
	eg.GET("", api.queryEnrollments)
	eg.POST("", api.enroll, adminMiddleware)
	eg.DELETE("/:id", api.unenroll, adminMiddleware)
}

// Course handlers

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Info{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"courses": courses})
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"course": crs})
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}

	asgs, err := api.asgSvc.Query(ctx.Request().Context(), &assignment.AssignmentFilter{CourseID: crs.ID})
	if err != nil {
		return errors.Wrap(err, "querying course assignments")
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}

	enrs, err := api.svc.QueryEnrollments(ctx.Request().Context(), &course.EnrollmentFilter{CourseID: crs.ID})
	if err != nil {
		return errors.Wrap(err, "querying course enrollments")
	}
	if enrs == nil {
		enrs = []course.Enrollment{}
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"course":      crs,
		"assignments": asgs,
		"enrollments": enrs,
	})
}

func (api *courseApi) update(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate, api.svc, crs); err != nil {
		return err
	}

	crs, err = api.svc.Update(ctx.Request().Context(), crs, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"course": crs})
}

func (api *courseApi) destroy(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}

	if err = api.svc.Delete(ctx.Request().Context(), crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": "course deleted"})
}

// Enrollment handlers

func (api *courseApi) queryEnrollments(ctx echo.Context) error {
	sess := getContextSession(ctx)

	filter := new(course.EnrollmentFilter)
	if sess.IsAdmin() {
		if err := ctx.Bind(filter); err != nil {
			filter = new(course.EnrollmentFilter)
		}
	} else {
		// students only ever see their own enrollments
		filter.UserID = sess.UserID
	}

	enrs, err := api.svc.QueryEnrollments(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"enrollments": enrs})
}

func (api *courseApi) enroll(ctx echo.Context) error {
	var data course.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.usrSvc.GetByID(ctx.Request().Context(), data.UserID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsStudent() {
		return core.NewValidationError(nil, core.FieldError{Field: "user_id", Error: errEnrolleeNotStudent})
	}
	if _, err = api.svc.GetByID(ctx.Request().Context(), data.CourseID); err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"enrollment": enr})
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	if err := api.svc.DeleteEnrollment(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": "enrollment deleted"})
}
