package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

type courseRow struct {
	ID          string      `db:"id"`
	Code        string      `db:"code"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

type courseInfoRow struct {
	courseRow
	EnrollmentCount int `db:"enrollment_count"`
	AssignmentCount int `db:"assignment_count"`
}

type enrollmentRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CourseID  string    `db:"course_id"`
	CreatedAt time.Time `db:"created_at"`

	CourseCode        string      `db:"course_code"`
	CourseName        string      `db:"course_name"`
	CourseDescription null.String `db:"course_description"`
	CourseCreatedAt   time.Time   `db:"course_created_at"`
	CourseUpdatedAt   time.Time   `db:"course_updated_at"`

	UserName  string `db:"user_name"`
	UserEmail string `db:"user_email"`
}

func (r courseRow) toDomain() course.Course {
	return course.Course{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r enrollmentRow) toDomain() course.Enrollment {
	return course.Enrollment{
		ID:        r.ID,
		UserID:    r.UserID,
		CourseID:  r.CourseID,
		CreatedAt: r.CreatedAt,
		Course: &course.Course{
			ID:          r.CourseID,
			Code:        r.CourseCode,
			Name:        r.CourseName,
			Description: r.CourseDescription,
			CreatedAt:   r.CourseCreatedAt,
			UpdatedAt:   r.CourseUpdatedAt,
		},
		User: &course.Student{
			ID:    r.UserID,
			Name:  r.UserName,
			Email: r.UserEmail,
		},
	}
}

func (repo courseRepository) CheckCodeUniqueness(ctx context.Context, code string, excludedCourses ...course.Course) error {
	query := `SELECT EXISTS (SELECT 1 FROM course WHERE code = $1`
	args := []interface{}{code}
	if len(excludedCourses) > 0 {
		ids := make([]string, 0, len(excludedCourses))
		for _, c := range excludedCourses {
			ids = append(ids, c.ID)
		}
		query += ` AND NOT (id = ANY($2))`
		args = append(args, pq.Array(ids))
	}
	query += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, args...); err != nil {
		return errors.Wrap(err, "checking course code uniqueness")
	}
	if exists {
		return course.ErrCodeExists
	}
	return nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO course (id, code, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		crs.ID, crs.Code, crs.Name, crs.Description, crs.CreatedAt, crs.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "course_code_key") {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, ordering []core.DBOrdering) ([]course.Info, error) {
	query := `
		SELECT c.id, c.code, c.name, c.description, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM enrollment e WHERE e.course_id = c.id) AS enrollment_count,
		       (SELECT COUNT(*) FROM assignment a WHERE a.course_id = c.id) AS assignment_count
		FROM course c` + orderByClause(prefixOrdering("c.", ordering))

	var rows []courseInfoRow
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	infos := make([]course.Info, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, course.Info{
			Course:          row.toDomain(),
			EnrollmentCount: row.EnrollmentCount,
			AssignmentCount: row.AssignmentCount,
		})
	}
	return infos, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, code, name, description, created_at, updated_at FROM course WHERE id = $1`, id)
	if err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return row.toDomain(), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE course SET code = $2, name = $3, description = $4, updated_at = $5 WHERE id = $1`,
		crs.ID, crs.Code, crs.Name, crs.Description, crs.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "course_code_key") {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return nil
}

func (repo courseRepository) CountCourses(ctx context.Context) (int, error) {
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM course`); err != nil {
		return 0, errors.Wrap(err, "counting courses")
	}
	return cnt, nil
}

const enrollmentSelect = `
	SELECT e.id, e.user_id, e.course_id, e.created_at,
	       c.code AS course_code, c.name AS course_name, c.description AS course_description,
	       c.created_at AS course_created_at, c.updated_at AS course_updated_at,
	       u.name AS user_name, u.email AS user_email
	FROM enrollment e
	JOIN course c ON c.id = e.course_id
	JOIN "user" u ON u.id = e.user_id`

func (repo courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	enr.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO enrollment (id, user_id, course_id, created_at) VALUES ($1, $2, $3, $4)`,
		enr.ID, enr.UserID, enr.CourseID, enr.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "enrollment_user_course_key") {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return repo.getEnrollmentByID(ctx, enr.ID)
}

func (repo courseRepository) getEnrollmentByID(ctx context.Context, id string) (course.Enrollment, error) {
	var row enrollmentRow
	if err := repo.db.GetContext(ctx, &row, enrollmentSelect+` WHERE e.id = $1`, id); err != nil {
		return course.Enrollment{}, trapNoRowsErr(err, course.ErrEnrollmentNotFound, "finding enrollment")
	}
	return row.toDomain(), nil
}

func (repo courseRepository) QueryEnrollments(ctx context.Context, filter *course.EnrollmentFilter) ([]course.Enrollment, error) {
	query := enrollmentSelect
	var args []interface{}
	if filter != nil {
		switch {
		case filter.UserID != "" && filter.CourseID != "":
			query += ` WHERE e.user_id = $1 AND e.course_id = $2`
			args = append(args, filter.UserID, filter.CourseID)
		case filter.UserID != "":
			query += ` WHERE e.user_id = $1`
			args = append(args, filter.UserID)
		case filter.CourseID != "":
			query += ` WHERE e.course_id = $1`
			args = append(args, filter.CourseID)
		}
	}
	query += ` ORDER BY e.created_at DESC`

	var rows []enrollmentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}

	enrs := make([]course.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrs = append(enrs, row.toDomain())
	}
	return enrs, nil
}

func (repo courseRepository) GetEnrollment(ctx context.Context, userID, courseID string) (course.Enrollment, error) {
	var row enrollmentRow
	err := repo.db.GetContext(ctx, &row, enrollmentSelect+` WHERE e.user_id = $1 AND e.course_id = $2`, userID, courseID)
	if err != nil {
		return course.Enrollment{}, trapNoRowsErr(err, course.ErrEnrollmentNotFound, "finding enrollment")
	}
	return row.toDomain(), nil
}

func (repo courseRepository) DeleteEnrollment(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM enrollment WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return nil
}
