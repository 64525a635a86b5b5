package api

import (
	"time"

	taskdomain "github.com/example/task-tracker/domain/task"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UpdateProfileRequest represents a profile update request.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// UserResponse represents a user account in responses.
type UserResponse struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Roles       []string   `json:"roles"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// RegisterResponse couples the new account with its first session tokens.
type RegisterResponse struct {
	User   UserResponse  `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

// TaskRequest represents a task create or update request. Status and
// Priority are optional; an absent status means Pending and an absent
// priority means Medium.
type TaskRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      *taskdomain.Status   `json:"status"`
	Priority    *taskdomain.Priority `json:"priority"`
	DueDate     *time.Time           `json:"due_date"`
}

func (r *TaskRequest) status() taskdomain.Status {
	if r.Status == nil {
		return taskdomain.StatusPending
	}
	return *r.Status
}

func (r *TaskRequest) priority() taskdomain.Priority {
	if r.Priority == nil {
		return taskdomain.PriorityMedium
	}
	return *r.Priority
}

// TaskResponse represents a task in responses.
type TaskResponse struct {
	ID          uint                `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      taskdomain.Status   `json:"status"`
	Priority    taskdomain.Priority `json:"priority"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	DueDate     *time.Time          `json:"due_date,omitempty"`
	UserID      string              `json:"user_id"`
}

// TaskListResponse wraps a list of tasks with its count.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Count int            `json:"count"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func toTaskResponse(t *taskdomain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
		DueDate:     t.DueDate,
		UserID:      t.UserID,
	}
}

func toTaskListResponse(tasks []taskdomain.Task) TaskListResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, toTaskResponse(&tasks[i]))
	}
	return TaskListResponse{Tasks: out, Count: len(out)}
}
