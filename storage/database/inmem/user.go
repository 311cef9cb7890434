package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excluded := make(map[string]struct{}, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = struct{}{}
	}
	for _, u := range repo.db.users {
		if _, skip := excluded[u.ID]; skip {
			continue
		}
		if u.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, _ []core.DBOrdering) ([]user.Info, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	infos := make([]user.Info, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		if filter != nil && filter.Role != "" && u.Role != filter.Role {
			continue
		}
		info := user.Info{User: u}
		for _, e := range repo.db.enrollments {
			if e.UserID == u.ID {
				info.EnrollmentCount++
			}
		}
		for _, s := range repo.db.submissions {
			if s.StudentID == u.ID {
				info.SubmissionCount++
			}
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.Before(infos[j].CreatedAt) })
	return infos, nil
}

func (repo userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	switch {
	case filter.ID != "":
		if u, ok := repo.db.users[filter.ID]; ok {
			return u, nil
		}
	case filter.Email != "":
		for _, u := range repo.db.users {
			if u.Email == filter.Email {
				return u, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	for _, u := range repo.db.users {
		if u.ID != usr.ID && u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo userRepository) DeleteUser(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.users, id)
	for eid, e := range repo.db.enrollments {
		if e.UserID == id {
			delete(repo.db.enrollments, eid)
		}
	}
	for sid, s := range repo.db.submissions {
		if s.StudentID == id {
			delete(repo.db.submissions, sid)
		}
	}
	return nil
}

func (repo userRepository) CountUsers(_ context.Context, role string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	cnt := 0
	for _, u := range repo.db.users {
		if role == "" || u.Role == role {
			cnt++
		}
	}
	return cnt, nil
}
