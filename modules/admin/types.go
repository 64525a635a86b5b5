package admin

import (
	"time"

	taskdomain "github.com/example/task-tracker/domain/task"
)

// DashboardData is the aggregate view served to administrators.
type DashboardData struct {
	TotalUsers    int64                 `json:"total_users"`
	ActiveUsers   int64                 `json:"active_users"`
	AdminUsers    int64                 `json:"admin_users"`
	TaskStats     taskdomain.Statistics `json:"task_stats"`
	RecentSignups []Signup              `json:"recent_signups"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// Signup is a newly registered account as shown on the dashboard.
type Signup struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserSummary is one row of the admin user listing: account details plus
// per-user task counts.
type UserSummary struct {
	ID             string     `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	Roles          []string   `json:"roles"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	TaskCount      int64      `json:"task_count"`
	CompletedTasks int64      `json:"completed_tasks"`
}

// TaskActivity is one entry of the recent activity feed.
type TaskActivity struct {
	TaskID    uint                `json:"task_id"`
	Title     string              `json:"title"`
	Status    taskdomain.Status   `json:"status"`
	Priority  taskdomain.Priority `json:"priority"`
	Action    string              `json:"action"`
	UserEmail string              `json:"user_email"`
	At        time.Time           `json:"at"`
}
