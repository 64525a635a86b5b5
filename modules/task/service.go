package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/task-tracker/domain/task"
)

var (
	// ErrNotFound is returned when a task does not exist for the caller.
	ErrNotFound = errors.New("task not found")
	// ErrAccessDenied is returned when a task exists but belongs to someone else.
	ErrAccessDenied = errors.New("access denied")
	// ErrValidation is returned when task fields fail validation.
	ErrValidation = errors.New("invalid task data")
	// ErrUserNotFound is returned when the owning user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
)

// UserChecker is the slice of the identity provider the task service needs:
// it only ever asks whether an owner exists.
type UserChecker interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// TaskService enforces ownership and validation rules around the task store.
// Callers pass their own user ID plus an isAdmin capability flag; admins see
// and mutate every task, everyone else only their own.
type TaskService struct {
	repo  *TaskRepository
	users UserChecker
}

// NewTaskService creates a new TaskService.
func NewTaskService(repo *TaskRepository, users UserChecker) *TaskService {
	return &TaskService{
		repo:  repo,
		users: users,
	}
}

// Create persists a new task for the calling user. Owner and timestamps are
// stamped here; whatever the client put in those fields is discarded.
func (s *TaskService) Create(ctx context.Context, task *domain.Task, userID string) (*domain.Task, error) {
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	task.UserID = userID
	task.CreatedAt = time.Now().UTC()
	task.CompletedAt = nil

	if !s.ValidateTask(task) {
		return nil, ErrValidation
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Update rewrites a task after re-reading the stored row through the
// caller's visibility. CreatedAt and the owner always come from the stored
// record, never from the client.
//
// CompletedAt is recomputed on every save: only a transition into Completed
// sets it, every other save clears it, including re-saving a task that is
// already Completed. Consumers that need the timestamp to survive must go
// through MarkCompleted.
func (s *TaskService) Update(ctx context.Context, task *domain.Task, userID string, isAdmin bool) (*domain.Task, error) {
	existing, err := s.fetchForCaller(ctx, task.ID, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	task.CreatedAt = existing.CreatedAt
	task.UserID = existing.UserID

	if task.Status == domain.StatusCompleted && existing.Status != domain.StatusCompleted {
		now := time.Now().UTC()
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}

	if !s.ValidateTask(task) {
		return nil, ErrValidation
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task. Admins delete by ID alone; everyone else only what
// they own.
func (s *TaskService) Delete(ctx context.Context, id uint, userID string, isAdmin bool) error {
	if isAdmin {
		return s.repo.Delete(ctx, id)
	}

	err := s.repo.DeleteForUser(ctx, id, userID)
	if errors.Is(err, ErrNotFound) {
		return s.notFoundOrDenied(ctx, id)
	}
	return err
}

// MarkCompleted moves the caller's task into Completed and stamps the
// completion time.
func (s *TaskService) MarkCompleted(ctx context.Context, id uint, userID string) (*domain.Task, error) {
	task, err := s.repo.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	task.Status = domain.StatusCompleted
	now := time.Now().UTC()
	task.CompletedAt = &now

	return s.Update(ctx, task, userID, false)
}

// MarkInProgress moves the caller's task into InProgress and clears any
// completion time.
func (s *TaskService) MarkInProgress(ctx context.Context, id uint, userID string) (*domain.Task, error) {
	task, err := s.repo.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	task.Status = domain.StatusInProgress
	task.CompletedAt = nil

	return s.Update(ctx, task, userID, false)
}

// GetByID retrieves a task. Admins see any task, everyone else only their own.
func (s *TaskService) GetByID(ctx context.Context, id uint, userID string, isAdmin bool) (*domain.Task, error) {
	if isAdmin {
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.GetByIDForUser(ctx, id, userID)
}

// TasksForUser retrieves the caller's own tasks, newest first.
func (s *TaskService) TasksForUser(ctx context.Context, userID string) ([]domain.Task, error) {
	return s.repo.ListForUser(ctx, userID)
}

// AllTasks retrieves every task in the system.
func (s *TaskService) AllTasks(ctx context.Context) ([]domain.Task, error) {
	return s.repo.ListAll(ctx)
}

// Search finds tasks whose title or description contains the term, scoped to
// the caller unless isAdmin.
func (s *TaskService) Search(ctx context.Context, term, userID string, isAdmin bool) ([]domain.Task, error) {
	scope := userID
	if isAdmin {
		scope = ""
	}
	return s.repo.Search(ctx, term, scope)
}

// TasksByStatus filters by status, scoped to the caller unless isAdmin.
func (s *TaskService) TasksByStatus(ctx context.Context, status domain.Status, userID string, isAdmin bool) ([]domain.Task, error) {
	tasks, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	if isAdmin {
		return tasks, nil
	}
	return filterByOwner(tasks, userID), nil
}

// TasksByPriority filters by priority, scoped to the caller unless isAdmin.
func (s *TaskService) TasksByPriority(ctx context.Context, priority domain.Priority, userID string, isAdmin bool) ([]domain.Task, error) {
	tasks, err := s.repo.ListByPriority(ctx, priority)
	if err != nil {
		return nil, err
	}
	if isAdmin {
		return tasks, nil
	}
	return filterByOwner(tasks, userID), nil
}

// CanUserAccessTask reports whether a task exists and is owned by the user.
// This is the authorization gate used ahead of sensitive operations.
func (s *TaskService) CanUserAccessTask(ctx context.Context, id uint, userID string) (bool, error) {
	return s.repo.ExistsForUser(ctx, id, userID)
}

// ValidateTask checks the task's fields: title present and at most 200
// characters, description at most 1000, and the due date (when set) not
// before today's calendar date. The result is a plain yes/no.
func (s *TaskService) ValidateTask(task *domain.Task) bool {
	if task.Title == "" || len(task.Title) > maxTitleLength {
		return false
	}
	if len(task.Description) > maxDescriptionLength {
		return false
	}
	if task.DueDate != nil {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		if task.DueDate.Before(today) {
			return false
		}
	}
	return true
}

// UserStatistics aggregates the caller's own tasks.
func (s *TaskService) UserStatistics(ctx context.Context, userID string) (domain.Statistics, error) {
	tasks, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return domain.Statistics{}, err
	}
	return domain.CalculateStatistics(tasks), nil
}

// SystemStatistics aggregates every task in the system.
func (s *TaskService) SystemStatistics(ctx context.Context) (domain.Statistics, error) {
	tasks, err := s.repo.ListAll(ctx)
	if err != nil {
		return domain.Statistics{}, err
	}
	return domain.CalculateStatistics(tasks), nil
}

// RecentTasks returns the most recently created tasks across all users.
func (s *TaskService) RecentTasks(ctx context.Context, limit int) ([]domain.Task, error) {
	return s.repo.Recent(ctx, limit)
}

// CountForUser returns the number of tasks owned by a user.
func (s *TaskService) CountForUser(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountForUser(ctx, userID)
}

// CountCompletedForUser returns the number of completed tasks owned by a user.
func (s *TaskService) CountCompletedForUser(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountCompletedForUser(ctx, userID)
}

// fetchForCaller loads a task through the caller's visibility. For
// non-admins a row owned by someone else surfaces as ErrAccessDenied so
// mutating endpoints can report it distinctly from a missing row.
func (s *TaskService) fetchForCaller(ctx context.Context, id uint, userID string, isAdmin bool) (*domain.Task, error) {
	if isAdmin {
		return s.repo.GetByID(ctx, id)
	}

	task, err := s.repo.GetByIDForUser(ctx, id, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, s.notFoundOrDenied(ctx, id)
	}
	return task, err
}

// notFoundOrDenied distinguishes a row that does not exist from one owned by
// another user.
func (s *TaskService) notFoundOrDenied(ctx context.Context, id uint) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return ErrAccessDenied
	}
	return ErrNotFound
}

func filterByOwner(tasks []domain.Task, userID string) []domain.Task {
	owned := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.UserID == userID {
			owned = append(owned, t)
		}
	}
	return owned
}
