// Package realtime fans task-change events out to project-scoped SSE
// subscribers. The hub is advisory only: events are dropped rather than
// queued when a client's buffer is full, and publishing never blocks the
// request that produced the event.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	EventTaskCreated    = "task_created"
	EventTaskUpdated    = "task_updated"
	EventTaskDeleted    = "task_deleted"
	EventProjectDeleted = "project_deleted"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type TaskEvent struct {
	TaskID    string `json:"task_id"`
	ProjectID string `json:"project_id"`
	ActorID   string `json:"actor_id,omitempty"`
}

type ProjectEvent struct {
	ProjectID string `json:"project_id"`
}

// Client is one connected SSE subscriber.
type Client struct {
	ID       string
	UserID   string
	Projects map[string]bool
	Send     chan []byte
}

func NewClient(userID string, projectIDs []string) *Client {
	projects := make(map[string]bool, len(projectIDs))
	for _, id := range projectIDs {
		projects[id] = true
	}
	return &Client{
		ID:       uuid.NewString(),
		UserID:   userID,
		Projects: projects,
		Send:     make(chan []byte, 16),
	}
}

type projectMessage struct {
	projectID string
	event     Event
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan projectMessage
	logger     zerolog.Logger
	mu         sync.RWMutex
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan projectMessage, 256),
		logger:     logger.With().Str("component", "realtime_hub").Logger(),
	}
}

// Run processes registration and broadcast traffic until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.event)
			if err != nil {
				h.logger.Error().Err(err).Str("event", msg.event.Type).Msg("failed to encode event")
				continue
			}
			h.mu.RLock()
			for _, client := range h.clients {
				if !client.Projects[msg.projectID] {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish queues an event for the project's subscribers. It drops the event
// when the hub itself is saturated; the stream carries no guarantees.
func (h *Hub) Publish(projectID string, event Event) {
	select {
	case h.broadcast <- projectMessage{projectID: projectID, event: event}:
	default:
		h.logger.Warn().Str("event", event.Type).Str("project_id", projectID).Msg("hub saturated, event dropped")
	}
}

func (h *Hub) PublishTaskEvent(eventType, projectID, taskID, actorID string) {
	h.Publish(projectID, Event{
		Type: eventType,
		Data: TaskEvent{TaskID: taskID, ProjectID: projectID, ActorID: actorID},
	})
}

func (h *Hub) PublishProjectDeleted(projectID string) {
	h.Publish(projectID, Event{
		Type: EventProjectDeleted,
		Data: ProjectEvent{ProjectID: projectID},
	})
}
