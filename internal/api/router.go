package api

import (
	"log/slog"
	"net/http"

	"github.com/TWRT/tasks-api/internal/api/handlers"
	"github.com/TWRT/tasks-api/internal/api/routing"
	"github.com/TWRT/tasks-api/internal/repository"
	"github.com/TWRT/tasks-api/internal/service"
)

func SetupRouter(db *repository.Database, logger *slog.Logger, opts ...service.Option) http.Handler {
	taskRepo := repository.NewTaskRepository(db)
	taskService := service.NewTaskService(taskRepo, opts...)
	taskHandler := handlers.NewTaskHandler(taskService, logger)

	router := routing.NewRouter()

	router.Handle(http.MethodGet, "/healthz", taskHandler.Health)

	router.Handle(http.MethodGet, "/tasks", taskHandler.ListTasks)
	router.Handle(http.MethodPost, "/tasks", taskHandler.CreateTask)
	router.Handle(http.MethodGet, "/tasks/:id", taskHandler.GetTask)
	router.Handle(http.MethodPut, "/tasks/:id", taskHandler.UpdateTask)
	router.Handle(http.MethodDelete, "/tasks/:id", taskHandler.DeleteTask)
	router.Handle(http.MethodPatch, "/tasks/:id/complete", taskHandler.CompleteTask)

	return routing.Chain(router,
		routing.WithRequestID(),
		routing.Logging(logger),
		routing.Recover(logger),
	)
}
