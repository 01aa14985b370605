package handlers

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/taskhive/taskhive-api/internal/authz"
	"github.com/taskhive/taskhive-api/internal/realtime"
	"github.com/taskhive/taskhive-api/internal/repository"
)

type EventsHandler struct {
	hub         *realtime.Hub
	projectRepo repository.ProjectRepository
	logger      zerolog.Logger
}

func NewEventsHandler(hub *realtime.Hub, projectRepo repository.ProjectRepository, logger zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		hub:         hub,
		projectRepo: projectRepo,
		logger:      logger,
	}
}

// Subscribe opens a server-sent-events stream scoped to the projects the
// caller can read at connect time. The subscription set is fixed for the
// life of the connection; clients reconnect to pick up new projects.
func (h *EventsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	projects, err := h.projectRepo.ListProjectsForUser(userID)
	if err != nil {
		http.Error(w, "Failed to list projects: "+err.Error(), http.StatusInternalServerError)
		return
	}
	projectIDs := make([]string, 0, len(projects))
	for _, p := range projects {
		projectIDs = append(projectIDs, p.ID)
	}

	client := realtime.NewClient(userID, projectIDs)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Initial comment confirms the stream is live before any event lands.
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	h.logger.Debug().Str("user_id", userID).Int("projects", len(projectIDs)).Msg("sse client connected")

	for {
		select {
		case <-r.Context().Done():
			return
		case data, open := <-client.Send:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
