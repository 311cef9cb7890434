package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) CheckCodeUniqueness(_ context.Context, code string, excludedCourses ...course.Course) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excluded := make(map[string]struct{}, len(excludedCourses))
	for _, c := range excludedCourses {
		excluded[c.ID] = struct{}{}
	}
	for _, c := range repo.db.courses {
		if _, skip := excluded[c.ID]; skip {
			continue
		}
		if c.Code == code {
			return course.ErrCodeExists
		}
	}
	return nil
}

func (repo courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, c := range repo.db.courses {
		if c.Code == crs.Code {
			return course.Course{}, course.ErrCodeExists
		}
	}
	crs.ID = uuid.New().String()
	repo.db.courses[crs.ID] = crs
	return crs, nil
}

func (repo courseRepository) QueryCourses(_ context.Context, _ []core.DBOrdering) ([]course.Info, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	infos := make([]course.Info, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		info := course.Info{Course: c}
		for _, e := range repo.db.enrollments {
			if e.CourseID == c.ID {
				info.EnrollmentCount++
			}
		}
		for _, a := range repo.db.assignments {
			if a.CourseID == c.ID {
				info.AssignmentCount++
			}
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.Before(infos[j].CreatedAt) })
	return infos, nil
}

func (repo courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo courseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	for _, c := range repo.db.courses {
		if c.ID != crs.ID && c.Code == crs.Code {
			return course.Course{}, course.ErrCodeExists
		}
	}
	repo.db.courses[crs.ID] = crs
	return crs, nil
}

func (repo courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.courses, id)
	for eid, e := range repo.db.enrollments {
		if e.CourseID == id {
			delete(repo.db.enrollments, eid)
		}
	}
	for aid, a := range repo.db.assignments {
		if a.CourseID == id {
			delete(repo.db.assignments, aid)
			for sid, s := range repo.db.submissions {
				if s.AssignmentID == aid {
					delete(repo.db.submissions, sid)
				}
			}
		}
	}
	return nil
}

func (repo courseRepository) CountCourses(_ context.Context) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.courses), nil
}

// hydrate attaches the enrollment's course and student views.
// Callers must hold the lock.
func (repo courseRepository) hydrate(enr course.Enrollment) course.Enrollment {
	if c, ok := repo.db.courses[enr.CourseID]; ok {
		crs := c
		enr.Course = &crs
	}
	if u, ok := repo.db.users[enr.UserID]; ok {
		enr.User = &course.Student{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return enr
}

func (repo courseRepository) CreateEnrollment(_ context.Context, enr course.Enrollment) (course.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, e := range repo.db.enrollments {
		if e.UserID == enr.UserID && e.CourseID == enr.CourseID {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
	}
	enr.ID = uuid.New().String()
	repo.db.enrollments[enr.ID] = enr
	return repo.hydrate(enr), nil
}

func (repo courseRepository) QueryEnrollments(_ context.Context, filter *course.EnrollmentFilter) ([]course.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	enrs := make([]course.Enrollment, 0, len(repo.db.enrollments))
	for _, e := range repo.db.enrollments {
		if filter != nil {
			if filter.UserID != "" && e.UserID != filter.UserID {
				continue
			}
			if filter.CourseID != "" && e.CourseID != filter.CourseID {
				continue
			}
		}
		enrs = append(enrs, repo.hydrate(e))
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].CreatedAt.After(enrs[j].CreatedAt) })
	return enrs, nil
}

func (repo courseRepository) GetEnrollment(_ context.Context, userID, courseID string) (course.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, e := range repo.db.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return repo.hydrate(e), nil
		}
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

func (repo courseRepository) DeleteEnrollment(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.enrollments, id)
	return nil
}
