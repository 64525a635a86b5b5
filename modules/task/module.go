package task

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"gorm.io/gorm"
)

// TaskModule provides task management: CRUD, status transitions, filtering
// and statistics.
type TaskModule struct {
	db      *gorm.DB
	repo    *TaskRepository
	service *TaskService
}

// Compile-time interface checks.
var _ mono.Module = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule on top of an already opened database.
// The UserChecker comes from the identity side so task creation can refuse
// owners that do not exist.
func NewModule(db *gorm.DB, users UserChecker) *TaskModule {
	repo := NewTaskRepository(db)
	return &TaskModule{
		db:      db,
		repo:    repo,
		service: NewTaskService(repo, users),
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// Service returns the task service for direct wiring.
func (m *TaskModule) Service() *TaskService {
	return m.service
}

// Start runs the task table migrations.
func (m *TaskModule) Start(_ context.Context) error {
	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate task table: %w", err)
	}
	log.Println("[task] Module started")
	return nil
}

// Stop shuts down the module. The database connection is owned by main.
func (m *TaskModule) Stop(_ context.Context) error {
	log.Println("[task] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *TaskModule) Health(_ context.Context) mono.HealthStatus {
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
	}
}
