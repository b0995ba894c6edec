package repository

import (
	"encoding/json"
	"fmt"

	"github.com/TWRT/tasks-api/internal/models"
)

const tasksTable = "tasks"

type TaskRepository struct {
	db *Database
}

func NewTaskRepository(db *Database) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns every task in insertion order. A non-empty search keeps only
// tasks whose id contains it.
func (r *TaskRepository) List(search string) ([]models.Task, error) {
	var filter Filter
	if search != "" {
		filter = Filter{"id": search}
	}

	records, err := r.db.Select(tasksTable, filter)
	if err != nil {
		return nil, err
	}
	tasks := make([]models.Task, 0, len(records))
	for _, record := range records {
		task, err := recordToTask(record)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *TaskRepository) Get(id string) (models.Task, error) {
	record, err := r.db.Get(tasksTable, id)
	if err != nil {
		return models.Task{}, err
	}
	return recordToTask(record)
}

func (r *TaskRepository) Create(task models.Task) error {
	record, err := taskToRecord(task)
	if err != nil {
		return err
	}
	return r.db.Insert(tasksTable, record)
}

// Modify applies fn to the stored task atomically with respect to every
// other write. The id returned by fn is ignored.
func (r *TaskRepository) Modify(id string, fn func(models.Task) (models.Task, error)) (models.Task, error) {
	updated, err := r.db.Modify(tasksTable, id, func(record Record) (Record, error) {
		current, err := recordToTask(record)
		if err != nil {
			return nil, err
		}
		changed, err := fn(current)
		if err != nil {
			return nil, err
		}
		return taskToRecord(changed)
	})
	if err != nil {
		return models.Task{}, err
	}
	return recordToTask(updated)
}

func (r *TaskRepository) Delete(id string) error {
	return r.db.Delete(tasksTable, id)
}

func taskToRecord(task models.Task) (Record, error) {
	record, err := normalize(task)
	if err != nil {
		return nil, fmt.Errorf("Error trying to encode task %s: %w", task.ID, err)
	}
	return record, nil
}

func recordToTask(record Record) (models.Task, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return models.Task{}, fmt.Errorf("Error trying to encode record: %w", err)
	}

	var task models.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return models.Task{}, fmt.Errorf("Error trying to decode task: %w", err)
	}
	return task, nil
}
