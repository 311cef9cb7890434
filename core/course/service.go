package course

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	ErrNotFound           = errors.New("course not found")
	ErrCodeExists         = errors.New("a course with this code already exists")
	ErrAlreadyEnrolled    = errors.New("student is already enrolled in this course")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)

type (
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, code string, excludedCourses ...Course) error
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryCourses(ctx context.Context, ordering []core.DBOrdering) ([]Info, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
		CountCourses(ctx context.Context) (int, error)

		// CreateEnrollment returns ErrAlreadyEnrolled when the
		// (user, course) unique constraint is violated.
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter *EnrollmentFilter) ([]Enrollment, error)
		GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		CheckCodeUniqueness(ctx context.Context, code string, excludedCourses ...Course) error
		Create(ctx context.Context, nc NewCourse) (Course, error)
		Query(ctx context.Context) ([]Info, error)
		GetByID(ctx context.Context, id string) (Course, error)
		Update(ctx context.Context, origCrs Course, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, id string) error
		Count(ctx context.Context) (int, error)

		Enroll(ctx context.Context, ne NewEnrollment) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter *EnrollmentFilter) ([]Enrollment, error)
		IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
		DeleteEnrollment(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckCodeUniqueness(ctx context.Context, code string, excludedCourses ...Course) error {
	if err := svc.repo.CheckCodeUniqueness(ctx, code, excludedCourses...); err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Code:      nc.Code,
		Name:      nc.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nc.Description != "" {
		crs.Description.SetValid(nc.Description)
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) Query(ctx context.Context) ([]Info, error) {
	ordering := []core.DBOrdering{{Field: "created_at"}}
	return svc.repo.QueryCourses(ctx, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Course{}, ErrNotFound
	}
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Update(ctx context.Context, origCrs Course, uc UpdateCourse) (Course, error) {
	crs := origCrs
	crs.Code = uc.Code
	crs.Name = uc.Name
	if uc.Description != nil {
		desc := core.CleanString(*uc.Description)
		crs.Description.SetValid(desc)
		if desc == "" {
			crs.Description.Valid = false
		}
	}
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountCourses(ctx)
}

// Enroll links a student to a course. The repo's unique constraint is the
// final arbiter; the pre-check only yields a friendlier error message.
func (svc *Service) Enroll(ctx context.Context, ne NewEnrollment) (Enrollment, error) {
	if _, err := svc.repo.GetEnrollment(ctx, ne.UserID, ne.CourseID); err == nil {
		return Enrollment{}, core.NewValidationError(ErrAlreadyEnrolled)
	} else if errors.Cause(err) != ErrEnrollmentNotFound {
		return Enrollment{}, err
	}

	enr := Enrollment{
		UserID:    ne.UserID,
		CourseID:  ne.CourseID,
		CreatedAt: time.Now().UTC(),
	}
	enr, err := svc.repo.CreateEnrollment(ctx, enr)
	if err != nil {
		if errors.Cause(err) == ErrAlreadyEnrolled { // lost the race
			return Enrollment{}, core.NewValidationError(ErrAlreadyEnrolled)
		}
		return Enrollment{}, err
	}
	return enr, nil
}

func (svc *Service) QueryEnrollments(ctx context.Context, filter *EnrollmentFilter) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, filter)
}

func (svc *Service) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	_, err := svc.repo.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		if errors.Cause(err) == ErrEnrollmentNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (svc *Service) DeleteEnrollment(ctx context.Context, id string) error {
	return svc.repo.DeleteEnrollment(ctx, id)
}
