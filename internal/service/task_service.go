package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TWRT/tasks-api/internal/models"
)

type TaskRepository interface {
	List(search string) ([]models.Task, error)
	Get(id string) (models.Task, error)
	Create(task models.Task) error
	Modify(id string, fn func(models.Task) (models.Task, error)) (models.Task, error)
	Delete(id string) error
}

type TaskService struct {
	repo  TaskRepository
	now   func() time.Time
	newID func() string
}

type Option func(*TaskService)

func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *TaskService) { s.newID = newID }
}

func NewTaskService(repo TaskRepository, opts ...Option) *TaskService {
	s := &TaskService{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) List(search string) ([]models.Task, error) {
	tasks, err := s.repo.List(strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("Error trying to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(id string) (models.Task, error) {
	return s.repo.Get(id)
}

func (s *TaskService) Create(title, description *string) (models.Task, error) {
	if err := validate(title, description); err != nil {
		return models.Task{}, err
	}

	now := s.now().UnixMilli()
	task := models.Task{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(task); err != nil {
		return models.Task{}, fmt.Errorf("Error trying to create task: %w", err)
	}
	return task, nil
}

// Update replaces title and description. A field left nil is cleared.
func (s *TaskService) Update(id string, title, description *string) (models.Task, error) {
	if err := validate(title, description); err != nil {
		return models.Task{}, err
	}

	now := s.now().UnixMilli()
	return s.repo.Modify(id, func(current models.Task) (models.Task, error) {
		current.Title = title
		current.Description = description
		current.UpdatedAt = nextUpdatedAt(current, now)
		return current, nil
	})
}

// Complete stamps completed_at the first time it is called. Later calls
// keep the first timestamp and only refresh updated_at.
func (s *TaskService) Complete(id string) (models.Task, error) {
	now := s.now().UnixMilli()
	return s.repo.Modify(id, func(current models.Task) (models.Task, error) {
		updatedAt := nextUpdatedAt(current, now)
		if current.CompletedAt == nil {
			completedAt := updatedAt
			current.CompletedAt = &completedAt
		}
		current.UpdatedAt = updatedAt
		return current, nil
	})
}

func (s *TaskService) Delete(id string) error {
	return s.repo.Delete(id)
}

// nextUpdatedAt never returns a value at or before the task's current
// updated_at, even when the clock has not moved.
func nextUpdatedAt(task models.Task, now int64) int64 {
	if now <= task.UpdatedAt {
		return task.UpdatedAt + 1
	}
	return now
}

func validate(title, description *string) error {
	if isBlank(title) && isBlank(description) {
		return ErrTitleOrDescriptionRequired
	}
	return nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
