package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/realtime"
	"github.com/taskhive/taskhive-api/internal/repository"
)

// GuestHandler serves the unauthenticated access path keyed by a share-link
// (or still-pending invite) token. Guests get editor-equivalent access to
// the project's tasks; they never become members and their writes are
// attributed to the project owner.
type GuestHandler struct {
	inviteRepo  repository.InviteRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	hub         *realtime.Hub
	logger      zerolog.Logger
}

func NewGuestHandler(
	inviteRepo repository.InviteRepository,
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	hub *realtime.Hub,
	logger zerolog.Logger,
) *GuestHandler {
	return &GuestHandler{
		inviteRepo:  inviteRepo,
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		hub:         hub,
		logger:      logger,
	}
}

// resolveProject resolves the token to a usable project or writes the error
// response. notFoundMsg carries the per-endpoint not-found wording.
func (h *GuestHandler) resolveProject(w http.ResponseWriter, r *http.Request, notFoundMsg string) (models.Project, bool) {
	token := strings.TrimSpace(mux.Vars(r)["token"])
	if token == "" {
		http.Error(w, "Missing token", http.StatusBadRequest)
		return models.Project{}, false
	}

	grant, err := resolveAccessGrant(h.inviteRepo, h.projectRepo, token)
	if err != nil {
		if errors.Is(err, errGrantNotFound) {
			http.Error(w, notFoundMsg, http.StatusNotFound)
			return models.Project{}, false
		}
		http.Error(w, "Failed to resolve token: "+err.Error(), http.StatusInternalServerError)
		return models.Project{}, false
	}
	if writeGrantState(w, grant, token) {
		return models.Project{}, false
	}
	return grant.Project, true
}

func (h *GuestHandler) GetGuestProject(w http.ResponseWriter, r *http.Request) {
	project, ok := h.resolveProject(w, r, "Invite not found")
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"project": project})
}

func (h *GuestHandler) GetGuestTasks(w http.ResponseWriter, r *http.Request) {
	project, ok := h.resolveProject(w, r, "Project not found")
	if !ok {
		return
	}

	tasks, err := h.taskRepo.ListTasksByProject(project.ID)
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

func (h *GuestHandler) CreateGuestTask(w http.ResponseWriter, r *http.Request) {
	project, ok := h.resolveProject(w, r, "Project not found")
	if !ok {
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

	// Guest-created tasks are attributed to the project owner; guests have
	// no identity of their own. Medium is the guest-path default priority.
	task := models.Task{
		Priority:  models.TaskPriorityMedium,
		OwnerID:   project.OwnerID,
		ProjectID: &project.ID,
	}
	if !applyTaskPayload(&task, payload, w) {
		return
	}

	created, err := h.taskRepo.CreateTask(task)
	if err != nil {
		http.Error(w, "Failed to create task: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.hub.PublishTaskEvent(realtime.EventTaskCreated, project.ID, created.ID, "")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"task": created})
}

// loadProjectTask loads the task and checks it belongs to the resolved
// project. "Task not found" and "Task not in this project" stay distinct.
func (h *GuestHandler) loadProjectTask(w http.ResponseWriter, r *http.Request, project models.Project) (models.Task, bool) {
	taskID := mux.Vars(r)["taskId"]
	task, err := h.taskRepo.GetTaskByID(taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Task not found", http.StatusNotFound)
			return models.Task{}, false
		}
		http.Error(w, "Failed to load task: "+err.Error(), http.StatusInternalServerError)
		return models.Task{}, false
	}
	if task.ProjectID == nil || *task.ProjectID != project.ID {
		http.Error(w, "Task not in this project", http.StatusForbidden)
		return models.Task{}, false
	}
	return task, true
}

func (h *GuestHandler) UpdateGuestTask(w http.ResponseWriter, r *http.Request) {
	project, ok := h.resolveProject(w, r, "Project not found")
	if !ok {
		return
	}
	task, ok := h.loadProjectTask(w, r, project)
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

	h.hub.PublishTaskEvent(realtime.EventTaskUpdated, project.ID, updated.ID, "")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"task": updated})
}

func (h *GuestHandler) DeleteGuestTask(w http.ResponseWriter, r *http.Request) {
	project, ok := h.resolveProject(w, r, "Project not found")
	if !ok {
		return
	}
	task, ok := h.loadProjectTask(w, r, project)
	if !ok {
		return
	}

	if err := h.taskRepo.DeleteTask(task.ID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Failed to delete task: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.hub.PublishTaskEvent(realtime.EventTaskDeleted, project.ID, task.ID, "")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"message": "Task deleted successfully"})
}
