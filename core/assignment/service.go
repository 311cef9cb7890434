package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

var (
	ErrNotFound           = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadySubmitted   = errors.New("a submission already exists for this assignment")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		// QueryAssignments returns assignments with their Course attached.
		QueryAssignments(ctx context.Context, filter *AssignmentFilter, ordering []core.DBOrdering) ([]Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		UpdateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		DeleteAssignment(ctx context.Context, id string) error
		CountAssignments(ctx context.Context) (int, error)
		// QueryUpcomingAssignments returns the student's enrolled assignments
		// with no due date or a due date at/after `now`, due date ascending,
		// each with the student's own submission attached (if any).
		QueryUpcomingAssignments(ctx context.Context, studentID string, now time.Time, limit int) ([]Assignment, error)

		// CreateSubmission returns ErrAlreadySubmitted when the
		// (assignment, student) unique constraint is violated.
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		GetStudentSubmission(ctx context.Context, assignmentID, studentID string) (Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
		// QuerySubmissions returns submissions with Student and
		// Assignment (incl. Course) attached.
		QuerySubmissions(ctx context.Context, filter *SubmissionFilter, ordering []core.DBOrdering) ([]Submission, error)
		CountSubmissions(ctx context.Context, status string) (int, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, na NewAssignment) (Assignment, error)
		Query(ctx context.Context, filter *AssignmentFilter) ([]Assignment, error)
		GetByID(ctx context.Context, id string) (Assignment, error)
		Update(ctx context.Context, origAsg Assignment, ua UpdateAssignment) (Assignment, error)
		Delete(ctx context.Context, id string) error
		Count(ctx context.Context) (int, error)
		QueryUpcoming(ctx context.Context, studentID string, limit int) ([]Assignment, error)

		Submit(ctx context.Context, studentID string, ns NewSubmission) (sub Submission, created bool, err error)
		Grade(ctx context.Context, id string, gs GradeSubmission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		QuerySubmissions(ctx context.Context, filter *SubmissionFilter) ([]Submission, error)
		CountSubmissions(ctx context.Context, status string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	asg := Assignment{
		CourseID:  na.CourseID,
		Title:     na.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if na.Description != "" {
		asg.Description.SetValid(na.Description)
	}
	if na.DueDate != nil {
		asg.DueDate.SetValid(na.DueDate.UTC())
	}
	if na.FileURL != "" {
		asg.FileURL.SetValid(na.FileURL)
	}
	if na.FileName != "" {
		asg.FileName.SetValid(na.FileName)
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *Service) Query(ctx context.Context, filter *AssignmentFilter) ([]Assignment, error) {
	ordering := []core.DBOrdering{{Field: "due_date", Ascending: true}}
	if filter == nil || filter.CourseID == "" {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	return svc.repo.QueryAssignments(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Assignment{}, ErrNotFound
	}
	return svc.repo.GetAssignment(ctx, id)
}

func (svc *Service) Update(ctx context.Context, origAsg Assignment, ua UpdateAssignment) (Assignment, error) {
	asg := origAsg
	asg.Title = ua.Title
	if ua.Description != nil {
		setNullString(&asg.Description, *ua.Description)
	}
	if ua.DueDate != nil {
		asg.DueDate.SetValid(ua.DueDate.UTC())
	}
	if ua.FileURL != nil {
		setNullString(&asg.FileURL, *ua.FileURL)
	}
	if ua.FileName != nil {
		setNullString(&asg.FileName, *ua.FileName)
	}
	asg.UpdatedAt = time.Now().UTC()
	asg.Course = nil
	asg.Submissions = nil
	return svc.repo.UpdateAssignment(ctx, asg)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteAssignment(ctx, id)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountAssignments(ctx)
}

func (svc *Service) QueryUpcoming(ctx context.Context, studentID string, limit int) ([]Assignment, error) {
	return svc.repo.QueryUpcomingAssignments(ctx, studentID, time.Now().UTC(), limit)
}

// Submit creates the student's submission for an assignment, or refreshes it
// if one already exists: at most one submission per (assignment, student).
// The repo's unique constraint settles concurrent first submissions; the
// loser surfaces as a validation error and is not retried.
func (svc *Service) Submit(ctx context.Context, studentID string, ns NewSubmission) (Submission, bool, error) {
	now := time.Now().UTC()

	sub, err := svc.repo.GetStudentSubmission(ctx, ns.AssignmentID, studentID)
	if err == nil {
		setNullString(&sub.Content, ns.Content)
		setNullString(&sub.FileURL, ns.FileURL)
		setNullString(&sub.FileName, ns.FileName)
		sub.Status = StatusSubmitted
		sub.Grade.Valid = false
		sub.Feedback.Valid = false
		sub.UpdatedAt = now
		sub, err = svc.repo.UpdateSubmission(ctx, sub)
		return sub, false, err
	}
	if errors.Cause(err) != ErrSubmissionNotFound {
		return Submission{}, false, err
	}

	sub = Submission{
		AssignmentID: ns.AssignmentID,
		StudentID:    studentID,
		Status:       StatusSubmitted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	setNullString(&sub.Content, ns.Content)
	setNullString(&sub.FileURL, ns.FileURL)
	setNullString(&sub.FileName, ns.FileName)

	sub, err = svc.repo.CreateSubmission(ctx, sub)
	if err != nil {
		if errors.Cause(err) == ErrAlreadySubmitted { // lost the race
			return Submission{}, false, core.NewValidationError(ErrAlreadySubmitted)
		}
		return Submission{}, false, err
	}
	return sub, true, nil
}

// Grade stores grade + feedback and moves the submission to GRADED.
// Re-grading overwrites; there is no lock against concurrent graders.
func (svc *Service) Grade(ctx context.Context, id string, gs GradeSubmission) (Submission, error) {
	sub, err := svc.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	sub.Grade.SetValid(*gs.Grade)
	setNullString(&sub.Feedback, gs.Feedback)
	sub.Status = StatusGraded
	sub.UpdatedAt = time.Now().UTC()
	sub.Student = nil
	sub.Assignment = nil
	return svc.repo.UpdateSubmission(ctx, sub)
}

func (svc *Service) GetSubmissionByID(ctx context.Context, id string) (Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Submission{}, ErrSubmissionNotFound
	}
	return svc.repo.GetSubmission(ctx, id)
}

func (svc *Service) QuerySubmissions(ctx context.Context, filter *SubmissionFilter) ([]Submission, error) {
	ordering := []core.DBOrdering{{Field: "updated_at"}}
	if filter != nil && filter.Status != "" {
		// the grading queue keeps its arrival order; a resubmission does not bump it
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	return svc.repo.QuerySubmissions(ctx, filter, ordering)
}

func (svc *Service) CountSubmissions(ctx context.Context, status string) (int, error) {
	return svc.repo.CountSubmissions(ctx, status)
}

func setNullString(dst *null.String, val string) {
	if val != "" {
		dst.SetValid(val)
	} else {
		dst.String = ""
		dst.Valid = false
	}
}
