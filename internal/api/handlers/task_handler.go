package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/TWRT/tasks-api/internal/api/routing"
	"github.com/TWRT/tasks-api/internal/models"
	"github.com/TWRT/tasks-api/internal/repository"
	"github.com/TWRT/tasks-api/internal/service"
)

type TaskService interface {
	List(search string) ([]models.Task, error)
	Get(id string) (models.Task, error)
	Create(title, description *string) (models.Task, error)
	Update(id string, title, description *string) (models.Task, error)
	Complete(id string) (models.Task, error)
	Delete(id string) error
}

type TaskRequestBody struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type TaskHandler struct {
	taskService TaskService
	logger      *slog.Logger
}

func NewTaskHandler(taskService TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.List(routing.QueryValue(r, "search"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.Get(routing.Param(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var body TaskRequestBody
	if err := routing.DecodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	task, err := h.taskService.Create(body.Title, body.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/tasks/"+task.ID)
	w.WriteHeader(http.StatusCreated)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var body TaskRequestBody
	if err := routing.DecodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, err := h.taskService.Update(routing.Param(r, "id"), body.Title, body.Description); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.taskService.Delete(routing.Param(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	if _, err := h.taskService.Complete(routing.Param(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Health(w http.ResponseWriter, r *http.Request) {
	routing.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *TaskHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrTitleOrDescriptionRequired):
		routing.WriteMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, routing.ErrMalformedBody):
		routing.WriteMessage(w, http.StatusBadRequest, routing.ErrMalformedBody.Error())
	case errors.Is(err, repository.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, repository.ErrDuplicateID):
		routing.WriteMessage(w, http.StatusConflict, repository.ErrDuplicateID.Error())
	default:
		h.logger.Error("request failed",
			"rid", routing.RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		routing.WriteMessage(w, http.StatusInternalServerError, "internal error")
	}
}
