package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/taskhive/taskhive-api/internal/access"
	"github.com/taskhive/taskhive-api/internal/authz"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/realtime"
	"github.com/taskhive/taskhive-api/internal/repository"
)

type TaskHandler struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	hub         *realtime.Hub
	logger      zerolog.Logger
}

func NewTaskHandler(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	hub *realtime.Hub,
	logger zerolog.Logger,
) *TaskHandler {
	return &TaskHandler{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		hub:         hub,
		logger:      logger,
	}
}

// taskPayload is the shared request shape for creating and updating tasks.
// Pointer fields distinguish "absent" from zero so updates stay partial.
type taskPayload struct {
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	Tags        []string            `json:"tags"`
	Completed   *bool               `json:"completed"`
	ProjectID   *string             `json:"projectId"`
}

// applyTaskPayload folds a partial payload into an existing task. Returns
// false after writing an error response when the payload is invalid.
func applyTaskPayload(task *models.Task, payload taskPayload, w http.ResponseWriter) bool {
	if title := strings.TrimSpace(payload.Title); title != "" {
		task.Title = title
	}
	if payload.Description != nil {
		task.Description = *payload.Description
	}
	if payload.Priority != "" {
		if !models.IsValidPriority(payload.Priority) {
			http.Error(w, "Invalid priority", http.StatusBadRequest)
			return false
		}
		task.Priority = payload.Priority
	}
	if payload.DueDate != nil {
		task.DueDate = payload.DueDate
	}
	if payload.Tags != nil {
		task.Tags = payload.Tags
	}
	if payload.Completed != nil {
		task.Completed = *payload.Completed
		if task.Completed {
			if task.CompletedAt == nil {
				now := time.Now()
				task.CompletedAt = &now
			}
		} else {
			task.CompletedAt = nil
		}
	}
	return true
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var payload taskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Title) == "" {
		http.Error(w, "Title required", http.StatusBadRequest)
		return
	}

	task := models.Task{OwnerID: userID}
	if !applyTaskPayload(&task, payload, w) {
		return
	}

	// A project-bound task needs the caller to hold a writing role on the
	// project right now; a personal task needs nothing beyond identity.
	if payload.ProjectID != nil && *payload.ProjectID != "" {
		project, err := h.projectRepo.GetProjectByID(*payload.ProjectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "Project not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to load project: "+err.Error(), http.StatusInternalServerError)
			return
		}
		role, member := access.RoleOf(project, userID)
		if !member {
			http.Error(w, "Not a project member", http.StatusForbidden)
			return
		}
		if !access.CanEdit(role) {
			http.Error(w, "Viewers cannot modify tasks", http.StatusForbidden)
			return
		}
		task.ProjectID = &project.ID
	}

	created, err := h.taskRepo.CreateTask(task)
	if err != nil {
		http.Error(w, "Failed to create task: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if created.ProjectID != nil {
		h.hub.PublishTaskEvent(realtime.EventTaskCreated, *created.ProjectID, created.ID, userID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"task": created})
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var tasks []models.Task
	var err error

	if projectID := r.URL.Query().Get("projectId"); projectID != "" {
		project, loadErr := h.projectRepo.GetProjectByID(projectID)
		if loadErr != nil {
			if errors.Is(loadErr, sql.ErrNoRows) {
				http.Error(w, "Project not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to load project: "+loadErr.Error(), http.StatusInternalServerError)
			return
		}
		if _, member := access.RoleOf(project, userID); !member {
			http.Error(w, "Not a project member", http.StatusForbidden)
			return
		}
		tasks, err = h.taskRepo.ListTasksByProject(project.ID)
	} else {
		tasks, err = h.taskRepo.ListTasksForUser(userID)
	}
	if err != nil {
		http.Error(w, "Failed to list tasks: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"tasks": tasks})
}

// loadAuthorizedTask loads the task and resolves the caller's role through
// the live project membership. needsEdit demands a writing role on top of
// plain access. Returns false once a response has been written.
func (h *TaskHandler) loadAuthorizedTask(w http.ResponseWriter, r *http.Request, userID string, needsEdit bool) (models.Task, bool) {
	taskID := mux.Vars(r)["id"]
	task, err := h.taskRepo.GetTaskByID(taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Task not found", http.StatusNotFound)
			return models.Task{}, false
		}
		http.Error(w, "Failed to load task: "+err.Error(), http.StatusInternalServerError)
		return models.Task{}, false
	}

	var project *models.Project
	if task.ProjectID != nil {
		loaded, err := h.projectRepo.GetProjectByID(*task.ProjectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "Project not found", http.StatusNotFound)
				return models.Task{}, false
			}
			http.Error(w, "Failed to load project: "+err.Error(), http.StatusInternalServerError)
			return models.Task{}, false
		}
		project = &loaded
	}

	role, ok := access.TaskRole(task, project, userID)
	if !ok {
		if task.ProjectID != nil {
			http.Error(w, "Not a project member", http.StatusForbidden)
		} else {
			http.Error(w, "Forbidden", http.StatusForbidden)
		}
		return models.Task{}, false
	}
	if needsEdit && !access.CanEdit(role) {
		http.Error(w, "Viewers cannot modify tasks", http.StatusForbidden)
		return models.Task{}, false
	}
	return task, true
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	task, ok := h.loadAuthorizedTask(w, r, userID, false)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"task": task})
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	task, ok := h.loadAuthorizedTask(w, r, userID, true)
	if !ok {
		return
	}

	var payload taskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if !applyTaskPayload(&task, payload, w) {
		return
	}

	updated, err := h.taskRepo.UpdateTask(task)
	if err != nil {
		http.Error(w, "Failed to update task: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if updated.ProjectID != nil {
		h.hub.PublishTaskEvent(realtime.EventTaskUpdated, *updated.ProjectID, updated.ID, userID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"task": updated})
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	task, ok := h.loadAuthorizedTask(w, r, userID, true)
	if !ok {
		return
	}

	if err := h.taskRepo.DeleteTask(task.ID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Failed to delete task: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if task.ProjectID != nil {
		h.hub.PublishTaskEvent(realtime.EventTaskDeleted, *task.ProjectID, task.ID, userID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"message": "Task deleted successfully"})
}
