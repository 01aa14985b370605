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

type ProjectHandler struct {
	projectRepo    repository.ProjectRepository
	inviteRepo     repository.InviteRepository
	hub            *realtime.Hub
	frontendOrigin string
	logger         zerolog.Logger
}

func NewProjectHandler(
	projectRepo repository.ProjectRepository,
	inviteRepo repository.InviteRepository,
	hub *realtime.Hub,
	frontendOrigin string,
	logger zerolog.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		projectRepo:    projectRepo,
		inviteRepo:     inviteRepo,
		hub:            hub,
		frontendOrigin: frontendOrigin,
		logger:         logger,
	}
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		http.Error(w, "Name required", http.StatusBadRequest)
		return
	}

	// Pre-generate the standing share link so the project is shareable
	// from the moment it exists.
	token, err := generateOpaqueToken()
	if err != nil {
		http.Error(w, "Failed to generate share token", http.StatusInternalServerError)
		return
	}

	project, err := h.projectRepo.CreateProject(payload.Name, userID, token)
	if err != nil {
		http.Error(w, "Failed to create project: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"project": project})
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	projects, err := h.projectRepo.ListProjectsForUser(userID)
	if err != nil {
		http.Error(w, "Failed to list projects: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"projects": projects})
}

type pendingInviteView struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Status    string     `json:"status"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	projectID := mux.Vars(r)["id"]
	project, err := h.projectRepo.GetProjectByID(projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load project: "+err.Error(), http.StatusInternalServerError)
		return
	}

	role, ok := access.RoleOf(project, userID)
	if !ok {
		// The project exists and we say so: existence is not hidden from
		// unauthorized callers in this system.
		http.Error(w, "Not a project member", http.StatusForbidden)
		return
	}

	response := map[string]interface{}{
		"project": project,
		"role":    role,
	}

	// Pending invites and the share link are owner-only extras.
	if role == models.RoleOwner {
		pending, err := h.inviteRepo.ListPendingByProject(project.ID)
		if err != nil {
			http.Error(w, "Failed to load invites: "+err.Error(), http.StatusInternalServerError)
			return
		}
		views := make([]pendingInviteView, 0, len(pending))
		for _, invite := range pending {
			views = append(views, pendingInviteView{
				ID:        invite.ID,
				Email:     invite.Email,
				Status:    string(invite.Status),
				Token:     invite.Token,
				ExpiresAt: invite.ExpiresAt,
				CreatedAt: invite.CreatedAt,
			})
		}
		response["invites"] = views
		if project.HasLiveInviteToken() {
			response["share_link"] = buildAcceptURL(h.frontendOrigin, *project.InviteToken)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	projectID := mux.Vars(r)["id"]
	project, err := h.projectRepo.GetProjectByID(projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load project: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if project.OwnerID != userID {
		http.Error(w, "Only owner can delete", http.StatusForbidden)
		return
	}

	if err := h.projectRepo.DeleteProject(projectID); err != nil {
		// A mid-cascade failure rolled back; surface it loudly so an
		// operator sees it, never a silently-partial success.
		h.logger.Error().Err(err).Str("project_id", projectID).Msg("project delete cascade failed")
		http.Error(w, "Failed to delete project", http.StatusInternalServerError)
		return
	}

	h.hub.PublishProjectDeleted(projectID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"message": "Project deleted successfully"})
}

func (h *ProjectHandler) GetShareLink(w http.ResponseWriter, r *http.Request) {
	h.shareLink(w, r, false)
}

func (h *ProjectHandler) ResetShareLink(w http.ResponseWriter, r *http.Request) {
	h.shareLink(w, r, true)
}

func (h *ProjectHandler) shareLink(w http.ResponseWriter, r *http.Request, reset bool) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	projectID := mux.Vars(r)["id"]
	project, err := h.projectRepo.GetProjectByID(projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load project: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if project.OwnerID != userID {
		http.Error(w, "Only owner can manage share link", http.StatusForbidden)
		return
	}

	if reset {
		token, err := generateOpaqueToken()
		if err != nil {
			http.Error(w, "Failed to generate share token", http.StatusInternalServerError)
			return
		}
		// Unconditional replacement: anyone holding the old link loses
		// access the moment this lands.
		project, err = h.projectRepo.ResetInviteToken(projectID, token)
		if err != nil {
			http.Error(w, "Failed to reset share link: "+err.Error(), http.StatusInternalServerError)
			return
		}
	} else if !project.HasLiveInviteToken() {
		token, err := generateOpaqueToken()
		if err != nil {
			http.Error(w, "Failed to generate share token", http.StatusInternalServerError)
			return
		}
		project, err = h.projectRepo.SetInviteTokenIfAbsent(projectID, token)
		if err != nil {
			http.Error(w, "Failed to issue share link: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"share_link":   buildAcceptURL(h.frontendOrigin, *project.InviteToken),
		"invite_token": *project.InviteToken,
		"created_at":   project.InviteTokenCreatedAt,
	})
}
