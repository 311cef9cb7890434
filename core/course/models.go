package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

type Course struct {
	ID          string      `json:"id"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Description null.String `json:"description"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

// Info is a Course augmented with its related record counts, as listed
// on the courses screen.
type Info struct {
	Course
	EnrollmentCount int `json:"enrollment_count"`
	AssignmentCount int `json:"assignment_count"`
}

// Student is the minimal user view attached to enrollment records.
type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Enrollment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CourseID  string    `json:"course_id"`
	CreatedAt time.Time `json:"created_at"` // UTC

	Course *Course  `json:"course,omitempty"`
	User   *Student `json:"user,omitempty"`
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Code        string `json:"code" validate:"required,min=2,max=20,alphanum_"`
	Name        string `json:"name" validate:"required,min=3,max=200"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nc.Code = core.CleanString(nc.Code)
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(ctx, nc.Code)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Empty fields keep their current value.
type UpdateCourse struct {
	Code        string  `json:"code" validate:"omitempty,min=2,max=20,alphanum_"`
	Name        string  `json:"name" validate:"omitempty,min=3,max=200"`
	Description *string `json:"description"`
}

func (uc *UpdateCourse) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface, origCrs Course) error {
	if code := core.CleanString(uc.Code); code != "" {
		uc.Code = code
	} else {
		uc.Code = origCrs.Code
	}

	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = origCrs.Name
	}

	if err := validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(ctx, uc.Code, origCrs)
}

// NewEnrollment links a student to a course.
type NewEnrollment struct {
	UserID   string `json:"user_id" validate:"required,uuid4"`
	CourseID string `json:"course_id" validate:"required,uuid4"`
}

func (ne NewEnrollment) Validate(validate *validator.Validate) error {
	return validate.Struct(ne)
}

type EnrollmentFilter struct {
	UserID   string `query:"user_id"`
	CourseID string `query:"course_id"`
}
