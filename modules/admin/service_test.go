package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	taskdomain "github.com/example/task-tracker/domain/task"
	userdomain "github.com/example/task-tracker/domain/user"
)

// mockUserDirectory implements UserDirectory with overridable functions.
type mockUserDirectory struct {
	countUsers       func(ctx context.Context) (int64, error)
	countActiveUsers func(ctx context.Context, since time.Time) (int64, error)
	countUsersInRole func(ctx context.Context, role string) (int64, error)
	recentUsers      func(ctx context.Context, limit int) ([]userdomain.User, error)
	searchUsers      func(ctx context.Context, term string) ([]userdomain.User, error)
}

func (m *mockUserDirectory) CountUsers(ctx context.Context) (int64, error) {
	return m.countUsers(ctx)
}

func (m *mockUserDirectory) CountActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	return m.countActiveUsers(ctx, since)
}

func (m *mockUserDirectory) CountUsersInRole(ctx context.Context, role string) (int64, error) {
	return m.countUsersInRole(ctx, role)
}

func (m *mockUserDirectory) RecentUsers(ctx context.Context, limit int) ([]userdomain.User, error) {
	return m.recentUsers(ctx, limit)
}

func (m *mockUserDirectory) SearchUsers(ctx context.Context, term string) ([]userdomain.User, error) {
	return m.searchUsers(ctx, term)
}

// mockTaskSource implements TaskSource with overridable functions.
type mockTaskSource struct {
	systemStatistics      func(ctx context.Context) (taskdomain.Statistics, error)
	recentTasks           func(ctx context.Context, limit int) ([]taskdomain.Task, error)
	countForUser          func(ctx context.Context, userID string) (int64, error)
	countCompletedForUser func(ctx context.Context, userID string) (int64, error)
}

func (m *mockTaskSource) SystemStatistics(ctx context.Context) (taskdomain.Statistics, error) {
	return m.systemStatistics(ctx)
}

func (m *mockTaskSource) RecentTasks(ctx context.Context, limit int) ([]taskdomain.Task, error) {
	return m.recentTasks(ctx, limit)
}

func (m *mockTaskSource) CountForUser(ctx context.Context, userID string) (int64, error) {
	return m.countForUser(ctx, userID)
}

func (m *mockTaskSource) CountCompletedForUser(ctx context.Context, userID string) (int64, error) {
	return m.countCompletedForUser(ctx, userID)
}

// memoryCache is an in-process DashboardCache for tests.
type memoryCache struct {
	data map[string]DashboardData
	gets int
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]DashboardData)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.gets++
	data, ok := c.data[key]
	if !ok {
		return false, nil
	}
	*dest.(*DashboardData) = data
	return true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}) error {
	c.sets++
	c.data[key] = value.(DashboardData)
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func newTestDirectory() *mockUserDirectory {
	return &mockUserDirectory{
		countUsers:       func(context.Context) (int64, error) { return 10, nil },
		countActiveUsers: func(context.Context, time.Time) (int64, error) { return 4, nil },
		countUsersInRole: func(context.Context, string) (int64, error) { return 1, nil },
		recentUsers: func(context.Context, int) ([]userdomain.User, error) {
			return []userdomain.User{
				{FirstName: "New", LastName: "Joiner", Email: "new@example.com", CreatedAt: time.Now().UTC()},
			}, nil
		},
		searchUsers: func(context.Context, string) ([]userdomain.User, error) {
			return nil, nil
		},
	}
}

func newTestTaskSource() *mockTaskSource {
	return &mockTaskSource{
		systemStatistics: func(context.Context) (taskdomain.Statistics, error) {
			return taskdomain.Statistics{TotalTasks: 7, CompletedTasks: 3}, nil
		},
		recentTasks: func(context.Context, int) ([]taskdomain.Task, error) {
			return nil, nil
		},
		countForUser:          func(context.Context, string) (int64, error) { return 0, nil },
		countCompletedForUser: func(context.Context, string) (int64, error) { return 0, nil },
	}
}

func TestDashboard(t *testing.T) {
	svc := NewAdminService(newTestDirectory(), newTestTaskSource(), nil)

	data, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	if data.TotalUsers != 10 {
		t.Errorf("TotalUsers = %d, want 10", data.TotalUsers)
	}
	if data.ActiveUsers != 4 {
		t.Errorf("ActiveUsers = %d, want 4", data.ActiveUsers)
	}
	if data.AdminUsers != 1 {
		t.Errorf("AdminUsers = %d, want 1", data.AdminUsers)
	}
	if data.TaskStats.TotalTasks != 7 {
		t.Errorf("TaskStats.TotalTasks = %d, want 7", data.TaskStats.TotalTasks)
	}
	if len(data.RecentSignups) != 1 || data.RecentSignups[0].Email != "new@example.com" {
		t.Errorf("RecentSignups = %v", data.RecentSignups)
	}
	if data.RecentSignups[0].Name != "New Joiner" {
		t.Errorf("signup name = %q, want %q", data.RecentSignups[0].Name, "New Joiner")
	}
	if data.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestDashboard_ActiveWindow(t *testing.T) {
	users := newTestDirectory()
	var gotSince time.Time
	users.countActiveUsers = func(_ context.Context, since time.Time) (int64, error) {
		gotSince = since
		return 0, nil
	}

	svc := NewAdminService(users, newTestTaskSource(), nil)
	if _, err := svc.Dashboard(context.Background()); err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	want := time.Now().UTC().AddDate(0, 0, -30)
	if diff := gotSince.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("active window since = %v, want ~%v", gotSince, want)
	}
}

func TestDashboard_CacheAside(t *testing.T) {
	users := newTestDirectory()
	calls := 0
	users.countUsers = func(context.Context) (int64, error) {
		calls++
		return 10, nil
	}

	cache := newMemoryCache()
	svc := NewAdminService(users, newTestTaskSource(), cache)
	ctx := context.Background()

	if _, err := svc.Dashboard(ctx); err != nil {
		t.Fatalf("first Dashboard failed: %v", err)
	}
	if _, err := svc.Dashboard(ctx); err != nil {
		t.Fatalf("second Dashboard failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("directory hit %d times, want 1 (second read should be cached)", calls)
	}
	if cache.sets != 1 {
		t.Errorf("cache.Set called %d times, want 1", cache.sets)
	}

	// Invalidation forces a rebuild.
	if err := svc.InvalidateDashboard(ctx); err != nil {
		t.Fatalf("InvalidateDashboard failed: %v", err)
	}
	if _, err := svc.Dashboard(ctx); err != nil {
		t.Fatalf("third Dashboard failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("directory hit %d times after invalidation, want 2", calls)
	}
}

func TestDashboard_DirectoryError(t *testing.T) {
	users := newTestDirectory()
	users.countUsers = func(context.Context) (int64, error) {
		return 0, errors.New("db down")
	}

	svc := NewAdminService(users, newTestTaskSource(), nil)
	if _, err := svc.Dashboard(context.Background()); err == nil {
		t.Error("expected error when the directory fails")
	}
}

func TestUserSummaries(t *testing.T) {
	now := time.Now().UTC()
	users := newTestDirectory()
	users.searchUsers = func(_ context.Context, term string) ([]userdomain.User, error) {
		if term != "smith" {
			t.Errorf("term = %q, want smith", term)
		}
		return []userdomain.User{
			{
				ID:        "u1",
				FirstName: "Jane",
				LastName:  "Smith",
				Email:     "jane@example.com",
				CreatedAt: now,
				Roles:     []userdomain.Role{{Name: userdomain.RoleUser}},
			},
		}, nil
	}

	tasks := newTestTaskSource()
	tasks.countForUser = func(_ context.Context, userID string) (int64, error) {
		if userID != "u1" {
			t.Errorf("counted tasks for %q, want u1", userID)
		}
		return 5, nil
	}
	tasks.countCompletedForUser = func(context.Context, string) (int64, error) { return 2, nil }

	svc := NewAdminService(users, tasks, nil)
	summaries, err := svc.UserSummaries(context.Background(), "smith")
	if err != nil {
		t.Fatalf("UserSummaries failed: %v", err)
	}

	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	s := summaries[0]
	if s.Email != "jane@example.com" {
		t.Errorf("Email = %q", s.Email)
	}
	if s.TaskCount != 5 || s.CompletedTasks != 2 {
		t.Errorf("counts = %d/%d, want 5/2", s.TaskCount, s.CompletedTasks)
	}
	if len(s.Roles) != 1 || s.Roles[0] != userdomain.RoleUser {
		t.Errorf("Roles = %v", s.Roles)
	}
}

func TestRecentActivity(t *testing.T) {
	created := time.Now().UTC().Add(-time.Hour)
	completedAt := time.Now().UTC()

	tasks := newTestTaskSource()
	tasks.recentTasks = func(_ context.Context, limit int) ([]taskdomain.Task, error) {
		if limit != activityLimit {
			t.Errorf("limit = %d, want %d", limit, activityLimit)
		}
		return []taskdomain.Task{
			{
				ID:        1,
				Title:     "open item",
				Status:    taskdomain.StatusPending,
				CreatedAt: created,
				User:      &userdomain.User{Email: "jane@example.com"},
			},
			{
				ID:          2,
				Title:       "done item",
				Status:      taskdomain.StatusCompleted,
				CreatedAt:   created,
				CompletedAt: &completedAt,
			},
		}, nil
	}

	svc := NewAdminService(newTestDirectory(), tasks, nil)
	feed, err := svc.RecentActivity(context.Background())
	if err != nil {
		t.Fatalf("RecentActivity failed: %v", err)
	}

	if len(feed) != 2 {
		t.Fatalf("got %d entries, want 2", len(feed))
	}
	if feed[0].Action != "created" || !feed[0].At.Equal(created) {
		t.Errorf("entry 0 = %+v", feed[0])
	}
	if feed[0].UserEmail != "jane@example.com" {
		t.Errorf("entry 0 email = %q", feed[0].UserEmail)
	}
	if feed[1].Action != "completed" || !feed[1].At.Equal(completedAt) {
		t.Errorf("entry 1 = %+v", feed[1])
	}
}
