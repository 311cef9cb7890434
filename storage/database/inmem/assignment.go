package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

// hydrateAssignment attaches the assignment's course. Callers must hold the lock.
func (repo assignmentRepository) hydrateAssignment(asg assignment.Assignment) assignment.Assignment {
	if c, ok := repo.db.courses[asg.CourseID]; ok {
		crs := c
		asg.Course = &crs
	}
	return asg
}

func (repo assignmentRepository) CreateAssignment(_ context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	asg.ID = uuid.New().String()
	repo.db.assignments[asg.ID] = asg
	return repo.hydrateAssignment(asg), nil
}

func (repo assignmentRepository) QueryAssignments(_ context.Context, filter *assignment.AssignmentFilter, _ []core.DBOrdering) ([]assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	asgs := make([]assignment.Assignment, 0, len(repo.db.assignments))
	for _, a := range repo.db.assignments {
		if filter != nil && filter.CourseID != "" && a.CourseID != filter.CourseID {
			continue
		}
		asgs = append(asgs, repo.hydrateAssignment(a))
	}
	sort.Slice(asgs, func(i, j int) bool { return asgs[i].CreatedAt.Before(asgs[j].CreatedAt) })
	return asgs, nil
}

func (repo assignmentRepository) GetAssignment(_ context.Context, id string) (assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return repo.hydrateAssignment(a), nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo assignmentRepository) UpdateAssignment(_ context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.assignments[asg.ID]; !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	repo.db.assignments[asg.ID] = asg
	return repo.hydrateAssignment(asg), nil
}

func (repo assignmentRepository) DeleteAssignment(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.assignments, id)
	for sid, s := range repo.db.submissions {
		if s.AssignmentID == id {
			delete(repo.db.submissions, sid)
		}
	}
	return nil
}

func (repo assignmentRepository) CountAssignments(_ context.Context) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.assignments), nil
}

func (repo assignmentRepository) QueryUpcomingAssignments(_ context.Context, studentID string, now time.Time, limit int) ([]assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	enrolled := make(map[string]struct{})
	for _, e := range repo.db.enrollments {
		if e.UserID == studentID {
			enrolled[e.CourseID] = struct{}{}
		}
	}

	var asgs []assignment.Assignment
	for _, a := range repo.db.assignments {
		if _, ok := enrolled[a.CourseID]; !ok {
			continue
		}
		if a.DueDate.Valid && a.DueDate.Time.Before(now) {
			continue
		}
		asg := repo.hydrateAssignment(a)
		for _, s := range repo.db.submissions {
			if s.AssignmentID == a.ID && s.StudentID == studentID {
				sub := s
				asg.Submission = &sub
				break
			}
		}
		asgs = append(asgs, asg)
	}

	// due date ascending, undated last
	sort.Slice(asgs, func(i, j int) bool {
		di, dj := asgs[i].DueDate, asgs[j].DueDate
		switch {
		case di.Valid && dj.Valid:
			return di.Time.Before(dj.Time)
		case di.Valid:
			return true
		default:
			return false
		}
	})
	if limit > 0 && len(asgs) > limit {
		asgs = asgs[:limit]
	}
	return asgs, nil
}

func (repo assignmentRepository) CreateSubmission(_ context.Context, sub assignment.Submission) (assignment.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, s := range repo.db.submissions {
		if s.AssignmentID == sub.AssignmentID && s.StudentID == sub.StudentID {
			return assignment.Submission{}, assignment.ErrAlreadySubmitted
		}
	}
	sub.ID = uuid.New().String()
	repo.db.submissions[sub.ID] = sub
	return sub, nil
}

func (repo assignmentRepository) GetSubmission(_ context.Context, id string) (assignment.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.submissions[id]; ok {
		return s, nil
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo assignmentRepository) GetStudentSubmission(_ context.Context, assignmentID, studentID string) (assignment.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, s := range repo.db.submissions {
		if s.AssignmentID == assignmentID && s.StudentID == studentID {
			return s, nil
		}
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo assignmentRepository) UpdateSubmission(_ context.Context, sub assignment.Submission) (assignment.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.submissions[sub.ID]; !ok {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	repo.db.submissions[sub.ID] = sub
	return sub, nil
}

func (repo assignmentRepository) QuerySubmissions(_ context.Context, filter *assignment.SubmissionFilter, ordering []core.DBOrdering) ([]assignment.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subs := make([]assignment.Submission, 0, len(repo.db.submissions))
	for _, s := range repo.db.submissions {
		if filter != nil {
			if filter.AssignmentID != "" && s.AssignmentID != filter.AssignmentID {
				continue
			}
			if filter.StudentID != "" && s.StudentID != filter.StudentID {
				continue
			}
			if filter.Status != "" && s.Status != filter.Status {
				continue
			}
		}
		sub := s
		if u, ok := repo.db.users[s.StudentID]; ok {
			sub.Student = &course.Student{ID: u.ID, Name: u.Name, Email: u.Email}
		}
		if a, ok := repo.db.assignments[s.AssignmentID]; ok {
			asg := repo.hydrateAssignment(a)
			sub.Assignment = &asg
		}
		subs = append(subs, sub)
	}
	byCreated := len(ordering) > 0 && ordering[0].Field == "created_at"
	sort.Slice(subs, func(i, j int) bool {
		if byCreated {
			return subs[i].CreatedAt.After(subs[j].CreatedAt)
		}
		return subs[i].UpdatedAt.After(subs[j].UpdatedAt)
	})
	if filter != nil && filter.Limit > 0 && len(subs) > filter.Limit {
		subs = subs[:filter.Limit]
	}
	return subs, nil
}

func (repo assignmentRepository) CountSubmissions(_ context.Context, status string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	cnt := 0
	for _, s := range repo.db.submissions {
		if status == "" || s.Status == status {
			cnt++
		}
	}
	return cnt, nil
}
