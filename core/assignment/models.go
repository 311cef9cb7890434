package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

// Submission statuses
const (
	StatusPending   = "PENDING"
	StatusSubmitted = "SUBMITTED"
	StatusGraded    = "GRADED"
)

type Assignment struct {
	ID          string      `json:"id"`
	CourseID    string      `json:"course_id"`
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	DueDate     null.Time   `json:"due_date"`
	FileURL     null.String `json:"file_url"`
	FileName    null.String `json:"file_name"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC

	Course      *course.Course `json:"course,omitempty"`
	Submissions []Submission   `json:"submissions,omitempty"`
	// Submission is the requesting student's own submission, attached
	// on dashboard upcoming-assignment records.
	Submission *Submission `json:"submission,omitempty"`
}

type Submission struct {
	ID           string      `json:"id"`
	AssignmentID string      `json:"assignment_id"`
	StudentID    string      `json:"student_id"`
	Content      null.String `json:"content"`
	FileURL      null.String `json:"file_url"`
	FileName     null.String `json:"file_name"`
	Status       string      `json:"status"`
	Grade        null.Int    `json:"grade"`
	Feedback     null.String `json:"feedback"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC

	Student    *course.Student `json:"student,omitempty"`
	Assignment *Assignment     `json:"assignment,omitempty"`
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	CourseID    string     `json:"course_id" validate:"required,uuid4"`
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	FileURL     string     `json:"file_url"`
	FileName    string     `json:"file_name"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an
// existing Assignment. Empty fields keep their current value; pointer fields
// distinguish "leave as is" (nil) from "clear" (pointer to empty value).
type UpdateAssignment struct {
	Title       string     `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	FileURL     *string    `json:"file_url"`
	FileName    *string    `json:"file_name"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate, origAsg Assignment) error {
	if title := core.CleanString(ua.Title); title != "" {
		ua.Title = title
	} else {
		ua.Title = origAsg.Title
	}
	return validate.Struct(ua)
}

// NewSubmission is a student's (possibly repeated) submission for an assignment.
type NewSubmission struct {
	AssignmentID string `json:"assignment_id" validate:"required,uuid4"`
	Content      string `json:"content"`
	FileURL      string `json:"file_url"`
	FileName     string `json:"file_name"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Content = core.CleanString(ns.Content)
	return validate.Struct(ns)
}

// GradeSubmission carries a grade + feedback for a submission.
type GradeSubmission struct {
	Grade    *int   `json:"grade" validate:"required,gte=0,lte=100"`
	Feedback string `json:"feedback"`
}

func (gs *GradeSubmission) Validate(validate *validator.Validate) error {
	gs.Feedback = core.CleanString(gs.Feedback)
	return validate.Struct(gs)
}

type AssignmentFilter struct {
	CourseID string `query:"course_id"`
}

type SubmissionFilter struct {
	AssignmentID string
	StudentID    string
	Status       string
	Limit        int
}
