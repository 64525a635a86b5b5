package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/task-tracker/domain/user"
)

// Status is the lifecycle state of a task. Any transition between states is
// allowed; there is no terminal state.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusPending:    "Pending",
	StatusInProgress: "InProgress",
	StatusCompleted:  "Completed",
	StatusCancelled:  "Cancelled",
}

// String returns the display name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseStatus parses a status from its display name, case-insensitively.
func ParseStatus(s string) (Status, error) {
	for v, name := range statusNames {
		if strings.EqualFold(s, name) {
			return v, nil
		}
	}
	return StatusPending, fmt.Errorf("unknown task status %q", s)
}

// MarshalJSON renders the status as its display name.
func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid task status %d", int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either a display name or a numeric value.
func (s *Status) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		parsed, err := ParseStatus(val)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	case float64:
		parsed := Status(int(val))
		if !parsed.Valid() {
			return fmt.Errorf("unknown task status %d", int(val))
		}
		*s = parsed
		return nil
	default:
		return fmt.Errorf("invalid task status value %v", v)
	}
}

// Priority is the urgency level of a task.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = map[Priority]string{
	PriorityLow:      "Low",
	PriorityMedium:   "Medium",
	PriorityHigh:     "High",
	PriorityCritical: "Critical",
}

// String returns the display name of the priority.
func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// Valid reports whether the priority is one of the known values.
func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

// ParsePriority parses a priority from its display name, case-insensitively.
func ParsePriority(s string) (Priority, error) {
	for v, name := range priorityNames {
		if strings.EqualFold(s, name) {
			return v, nil
		}
	}
	return PriorityLow, fmt.Errorf("unknown task priority %q", s)
}

// MarshalJSON renders the priority as its display name.
func (p Priority) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid task priority %d", int(p))
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts either a display name or a numeric value.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		parsed, err := ParsePriority(val)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	case float64:
		parsed := Priority(int(val))
		if !parsed.Valid() {
			return fmt.Errorf("unknown task priority %d", int(val))
		}
		*p = parsed
		return nil
	default:
		return fmt.Errorf("invalid task priority value %v", v)
	}
}

// Task is a single to-do item owned by exactly one user. CreatedAt and UserID
// are stamped by the service on creation and never taken from the client.
type Task struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"size:1000" json:"description,omitempty"`
	Status      Status     `gorm:"not null;default:0;index" json:"status"`
	Priority    Priority   `gorm:"not null" json:"priority"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	UserID      string     `gorm:"size:36;not null;index" json:"user_id"`
	User        *user.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// Overdue reports whether the task is past its due date and not completed.
func (t *Task) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}
