package sqlxrepos

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
)

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

type assignmentRow struct {
	ID          string      `db:"id"`
	CourseID    string      `db:"course_id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	DueDate     null.Time   `db:"due_date"`
	FileURL     null.String `db:"file_url"`
	FileName    null.String `db:"file_name"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`

	CourseCode        string      `db:"course_code"`
	CourseName        string      `db:"course_name"`
	CourseDescription null.String `db:"course_description"`
	CourseCreatedAt   time.Time   `db:"course_created_at"`
	CourseUpdatedAt   time.Time   `db:"course_updated_at"`
}

type submissionRow struct {
	ID           string      `db:"id"`
	AssignmentID string      `db:"assignment_id"`
	StudentID    string      `db:"student_id"`
	Content      null.String `db:"content"`
	FileURL      null.String `db:"file_url"`
	FileName     null.String `db:"file_name"`
	Status       string      `db:"status"`
	Grade        null.Int    `db:"grade"`
	Feedback     null.String `db:"feedback"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r assignmentRow) toDomain() assignment.Assignment {
	return assignment.Assignment{
		ID:          r.ID,
		CourseID:    r.CourseID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		FileURL:     r.FileURL,
		FileName:    r.FileName,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Course: &course.Course{
			ID:          r.CourseID,
			Code:        r.CourseCode,
			Name:        r.CourseName,
			Description: r.CourseDescription,
			CreatedAt:   r.CourseCreatedAt,
			UpdatedAt:   r.CourseUpdatedAt,
		},
	}
}

func (r submissionRow) toDomain() assignment.Submission {
	return assignment.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		StudentID:    r.StudentID,
		Content:      r.Content,
		FileURL:      r.FileURL,
		FileName:     r.FileName,
		Status:       r.Status,
		Grade:        r.Grade,
		Feedback:     r.Feedback,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

const assignmentSelect = `
	SELECT a.id, a.course_id, a.title, a.description, a.due_date, a.file_url, a.file_name,
	       a.created_at, a.updated_at,
	       c.code AS course_code, c.name AS course_name, c.description AS course_description,
	       c.created_at AS course_created_at, c.updated_at AS course_updated_at
	FROM assignment a
	JOIN course c ON c.id = a.course_id`

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	asg.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO assignment (id, course_id, title, description, due_date, file_url, file_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		asg.ID, asg.CourseID, asg.Title, asg.Description, asg.DueDate, asg.FileURL, asg.FileName, asg.CreatedAt, asg.UpdatedAt,
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return repo.GetAssignment(ctx, asg.ID)
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context, filter *assignment.AssignmentFilter, ordering []core.DBOrdering) ([]assignment.Assignment, error) {
	query := assignmentSelect
	var args []interface{}
	if filter != nil && filter.CourseID != "" {
		query += ` WHERE a.course_id = $1`
		args = append(args, filter.CourseID)
	}
	query += orderByClause(prefixOrdering("a.", ordering))

	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}

	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		asgs = append(asgs, row.toDomain())
	}
	return asgs, nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, assignmentSelect+` WHERE a.id = $1`, id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "finding assignment")
	}
	return row.toDomain(), nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE assignment SET title = $2, description = $3, due_date = $4, file_url = $5, file_name = $6, updated_at = $7
		 WHERE id = $1`,
		asg.ID, asg.Title, asg.Description, asg.DueDate, asg.FileURL, asg.FileName, asg.UpdatedAt,
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return repo.GetAssignment(ctx, asg.ID)
}

func (repo assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM assignment WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return nil
}

func (repo assignmentRepository) CountAssignments(ctx context.Context) (int, error) {
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM assignment`); err != nil {
		return 0, errors.Wrap(err, "counting assignments")
	}
	return cnt, nil
}

func (repo assignmentRepository) QueryUpcomingAssignments(ctx context.Context, studentID string, now time.Time, limit int) ([]assignment.Assignment, error) {
	query := assignmentSelect + `
	JOIN enrollment e ON e.course_id = a.course_id AND e.user_id = $1
	WHERE a.due_date IS NULL OR a.due_date >= $2
	ORDER BY a.due_date ASC NULLS LAST
	LIMIT $3`

	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, query, studentID, now, limit); err != nil {
		return nil, errors.Wrap(err, "querying upcoming assignments")
	}

	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		asg := row.toDomain()
		if sub, err := repo.GetStudentSubmission(ctx, asg.ID, studentID); err == nil {
			asg.Submission = &sub
		} else if errors.Cause(err) != assignment.ErrSubmissionNotFound {
			return nil, err
		}
		asgs = append(asgs, asg)
	}
	return asgs, nil
}

func (repo assignmentRepository) CreateSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	sub.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO submission (id, assignment_id, student_id, content, file_url, file_name, status, grade, feedback, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sub.ID, sub.AssignmentID, sub.StudentID, sub.Content, sub.FileURL, sub.FileName, sub.Status, sub.Grade, sub.Feedback, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "submission_assignment_student_key") {
			return assignment.Submission{}, assignment.ErrAlreadySubmitted
		}
		return assignment.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo assignmentRepository) GetSubmission(ctx context.Context, id string) (assignment.Submission, error) {
	var row submissionRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, assignment_id, student_id, content, file_url, file_name, status, grade, feedback, created_at, updated_at
		 FROM submission WHERE id = $1`, id)
	if err != nil {
		return assignment.Submission{}, trapNoRowsErr(err, assignment.ErrSubmissionNotFound, "finding submission")
	}
	return row.toDomain(), nil
}

func (repo assignmentRepository) GetStudentSubmission(ctx context.Context, assignmentID, studentID string) (assignment.Submission, error) {
	var row submissionRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, assignment_id, student_id, content, file_url, file_name, status, grade, feedback, created_at, updated_at
		 FROM submission WHERE assignment_id = $1 AND student_id = $2`, assignmentID, studentID)
	if err != nil {
		return assignment.Submission{}, trapNoRowsErr(err, assignment.ErrSubmissionNotFound, "finding submission")
	}
	return row.toDomain(), nil
}

func (repo assignmentRepository) UpdateSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE submission SET content = $2, file_url = $3, file_name = $4, status = $5, grade = $6, feedback = $7, updated_at = $8
		 WHERE id = $1`,
		sub.ID, sub.Content, sub.FileURL, sub.FileName, sub.Status, sub.Grade, sub.Feedback, sub.UpdatedAt,
	)
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "updating submission")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	return sub, nil
}

func (repo assignmentRepository) QuerySubmissions(ctx context.Context, filter *assignment.SubmissionFilter, ordering []core.DBOrdering) ([]assignment.Submission, error) {
	query := `
		SELECT s.id, s.assignment_id, s.student_id, s.content, s.file_url, s.file_name,
		       s.status, s.grade, s.feedback, s.created_at, s.updated_at
		FROM submission s`
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.AssignmentID != "" {
			args = append(args, filter.AssignmentID)
			conds = append(conds, "s.assignment_id = $"+strconv.Itoa(len(args)))
		}
		if filter.StudentID != "" {
			args = append(args, filter.StudentID)
			conds = append(conds, "s.student_id = $"+strconv.Itoa(len(args)))
		}
		if filter.Status != "" {
			args = append(args, filter.Status)
			conds = append(conds, "s.status = $"+strconv.Itoa(len(args)))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderByClause(prefixOrdering("s.", ordering))
	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}

	subs := make([]assignment.Submission, 0, len(rows))
	for _, row := range rows {
		sub := row.toDomain()
		if err := repo.attachRelations(ctx, &sub); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// attachRelations hydrates a submission's student and assignment (incl. course).
func (repo assignmentRepository) attachRelations(ctx context.Context, sub *assignment.Submission) error {
	var student course.Student
	err := repo.db.GetContext(ctx, &student,
		`SELECT id, name, email FROM "user" WHERE id = $1`, sub.StudentID)
	if err != nil {
		return errors.Wrap(err, "finding submission student")
	}
	sub.Student = &student

	asg, err := repo.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return errors.Wrap(err, "finding submission assignment")
	}
	sub.Assignment = &asg
	return nil
}

func (repo assignmentRepository) CountSubmissions(ctx context.Context, status string) (int, error) {
	query := `SELECT COUNT(*) FROM submission`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting submissions")
	}
	return cnt, nil
}

