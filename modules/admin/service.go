package admin

import (
	"context"
	"fmt"
	"log"
	"time"

	taskdomain "github.com/example/task-tracker/domain/task"
	userdomain "github.com/example/task-tracker/domain/user"
)

const (
	dashboardCacheKey = "admin:dashboard"
	activityLimit     = 20
	signupLimit       = 5
	activeWindowDays  = 30
)

// UserDirectory is the slice of the identity side the admin service needs.
type UserDirectory interface {
	CountUsers(ctx context.Context) (int64, error)
	CountActiveUsers(ctx context.Context, since time.Time) (int64, error)
	CountUsersInRole(ctx context.Context, role string) (int64, error)
	RecentUsers(ctx context.Context, limit int) ([]userdomain.User, error)
	SearchUsers(ctx context.Context, term string) ([]userdomain.User, error)
}

// TaskSource is the slice of the task side the admin service needs.
type TaskSource interface {
	SystemStatistics(ctx context.Context) (taskdomain.Statistics, error)
	RecentTasks(ctx context.Context, limit int) ([]taskdomain.Task, error)
	CountForUser(ctx context.Context, userID string) (int64, error)
	CountCompletedForUser(ctx context.Context, userID string) (int64, error)
}

// DashboardCache is the cache surface the admin service uses. A nil cache
// disables caching entirely.
type DashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// AdminService aggregates data across the identity and task sides for the
// administrator views.
type AdminService struct {
	users UserDirectory
	tasks TaskSource
	cache DashboardCache
}

// NewAdminService creates a new AdminService. cache may be nil.
func NewAdminService(users UserDirectory, tasks TaskSource, cache DashboardCache) *AdminService {
	return &AdminService{
		users: users,
		tasks: tasks,
		cache: cache,
	}
}

// Dashboard builds the system overview: user counts, an admin headcount,
// users active in the last 30 days and task statistics across all owners.
// The result is served cache-aside when a cache is wired.
func (s *AdminService) Dashboard(ctx context.Context) (DashboardData, error) {
	if s.cache != nil {
		var cached DashboardData
		found, err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err != nil {
			// A broken cache must not take the dashboard down.
			log.Printf("[admin] Dashboard cache read failed: %v", err)
		} else if found {
			return cached, nil
		}
	}

	totalUsers, err := s.users.CountUsers(ctx)
	if err != nil {
		return DashboardData{}, fmt.Errorf("failed to count users: %w", err)
	}

	since := time.Now().UTC().AddDate(0, 0, -activeWindowDays)
	activeUsers, err := s.users.CountActiveUsers(ctx, since)
	if err != nil {
		return DashboardData{}, fmt.Errorf("failed to count active users: %w", err)
	}

	adminUsers, err := s.users.CountUsersInRole(ctx, userdomain.RoleAdmin)
	if err != nil {
		return DashboardData{}, fmt.Errorf("failed to count admins: %w", err)
	}

	stats, err := s.tasks.SystemStatistics(ctx)
	if err != nil {
		return DashboardData{}, fmt.Errorf("failed to compute task statistics: %w", err)
	}

	recent, err := s.users.RecentUsers(ctx, signupLimit)
	if err != nil {
		return DashboardData{}, fmt.Errorf("failed to list recent signups: %w", err)
	}
	signups := make([]Signup, 0, len(recent))
	for _, u := range recent {
		signups = append(signups, Signup{
			Name:      u.FullName(),
			Email:     u.Email,
			CreatedAt: u.CreatedAt,
		})
	}

	data := DashboardData{
		TotalUsers:    totalUsers,
		ActiveUsers:   activeUsers,
		AdminUsers:    adminUsers,
		TaskStats:     stats,
		RecentSignups: signups,
		GeneratedAt:   time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, data); err != nil {
			log.Printf("[admin] Dashboard cache write failed: %v", err)
		}
	}

	return data, nil
}

// UserSummaries lists accounts matching the search term, each annotated with
// its task counts. An empty term lists every account.
func (s *AdminService) UserSummaries(ctx context.Context, term string) ([]UserSummary, error) {
	users, err := s.users.SearchUsers(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, u := range users {
		total, err := s.tasks.CountForUser(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count tasks for %s: %w", u.ID, err)
		}
		completed, err := s.tasks.CountCompletedForUser(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count completed tasks for %s: %w", u.ID, err)
		}

		summaries = append(summaries, UserSummary{
			ID:             u.ID,
			FirstName:      u.FirstName,
			LastName:       u.LastName,
			Email:          u.Email,
			Roles:          u.RoleNames(),
			CreatedAt:      u.CreatedAt,
			LastLoginAt:    u.LastLoginAt,
			TaskCount:      total,
			CompletedTasks: completed,
		})
	}

	return summaries, nil
}

// RecentActivity returns the newest tasks across all users as a feed entry
// each. A completed task reads as a completion at its completion time,
// anything else as a creation.
func (s *AdminService) RecentActivity(ctx context.Context) ([]TaskActivity, error) {
	tasks, err := s.tasks.RecentTasks(ctx, activityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent tasks: %w", err)
	}

	feed := make([]TaskActivity, 0, len(tasks))
	for _, t := range tasks {
		entry := TaskActivity{
			TaskID:   t.ID,
			Title:    t.Title,
			Status:   t.Status,
			Priority: t.Priority,
			Action:   "created",
			At:       t.CreatedAt,
		}
		if t.Status == taskdomain.StatusCompleted && t.CompletedAt != nil {
			entry.Action = "completed"
			entry.At = *t.CompletedAt
		}
		if t.User != nil {
			entry.UserEmail = t.User.Email
		}
		feed = append(feed, entry)
	}

	return feed, nil
}

// InvalidateDashboard drops the cached dashboard so the next read rebuilds it.
func (s *AdminService) InvalidateDashboard(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, dashboardCacheKey)
}
