package handlers

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/taskhive/taskhive-api/internal/models"
)

// In-memory stores implementing the repository interfaces. They mirror the
// SQL behavior the handlers rely on: sql.ErrNoRows for absent rows and for
// lost conditional-update races, idempotent member insert.

type fakeProjectRepo struct {
	mu       sync.Mutex
	seq      int
	projects map[string]*models.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]*models.Project)}
}

func (r *fakeProjectRepo) CreateProject(name, ownerID, inviteToken string) (models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	now := time.Now()
	project := &models.Project{
		ID:                   fmt.Sprintf("project-%d", r.seq),
		Name:                 name,
		OwnerID:              ownerID,
		Members:              []models.Member{},
		InviteToken:          &inviteToken,
		InviteTokenCreatedAt: &now,
		CreatedAt:            now,
	}
	r.projects[project.ID] = project
	return *project, nil
}

func (r *fakeProjectRepo) GetProjectByID(id string) (models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[id]
	if !ok {
		return models.Project{}, sql.ErrNoRows
	}
	return *project, nil
}

func (r *fakeProjectRepo) GetProjectByInviteToken(token string) (models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, project := range r.projects {
		if project.InviteToken != nil && *project.InviteToken == token {
			return *project, nil
		}
	}
	return models.Project{}, sql.ErrNoRows
}

func (r *fakeProjectRepo) ListProjectsForUser(userID string) ([]models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Project
	for _, project := range r.projects {
		if project.OwnerID == userID {
			result = append(result, *project)
			continue
		}
		for _, m := range project.Members {
			if m.UserID == userID {
				result = append(result, *project)
				break
			}
		}
	}
	return result, nil
}

func (r *fakeProjectRepo) AddMember(projectID, userID string, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[projectID]
	if !ok {
		return sql.ErrNoRows
	}
	for _, m := range project.Members {
		if m.UserID == userID {
			return nil
		}
	}
	project.Members = append(project.Members, models.Member{
		UserID:  userID,
		Role:    role,
		AddedAt: time.Now(),
	})
	return nil
}

func (r *fakeProjectRepo) SetInviteTokenIfAbsent(projectID, token string) (models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[projectID]
	if !ok {
		return models.Project{}, sql.ErrNoRows
	}
	if project.InviteToken == nil || *project.InviteToken == "" {
		now := time.Now()
		project.InviteToken = &token
		project.InviteTokenCreatedAt = &now
	}
	return *project, nil
}

func (r *fakeProjectRepo) ResetInviteToken(projectID, token string) (models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[projectID]
	if !ok {
		return models.Project{}, sql.ErrNoRows
	}
	now := time.Now()
	project.InviteToken = &token
	project.InviteTokenCreatedAt = &now
	return *project, nil
}

func (r *fakeProjectRepo) DeleteProject(projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[projectID]; !ok {
		return sql.ErrNoRows
	}
	delete(r.projects, projectID)
	return nil
}

type fakeInviteRepo struct {
	mu      sync.Mutex
	seq     int
	invites map[string]*models.Invite
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: make(map[string]*models.Invite)}
}

func (r *fakeInviteRepo) CreateInvite(invite models.Invite) (models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	invite.ID = fmt.Sprintf("invite-%d", r.seq)
	invite.Status = models.InviteStatusPending
	invite.CreatedAt = time.Now()
	stored := invite
	r.invites[invite.ID] = &stored
	return invite, nil
}

func (r *fakeInviteRepo) GetInviteByToken(token string) (models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, invite := range r.invites {
		if invite.Token == token {
			return *invite, nil
		}
	}
	return models.Invite{}, sql.ErrNoRows
}

func (r *fakeInviteRepo) GetInviteByID(inviteID string) (models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[inviteID]
	if !ok {
		return models.Invite{}, sql.ErrNoRows
	}
	return *invite, nil
}

func (r *fakeInviteRepo) ListPendingByProject(projectID string) ([]models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Invite
	for _, invite := range r.invites {
		if invite.ProjectID == projectID && invite.Status == models.InviteStatusPending {
			result = append(result, *invite)
		}
	}
	return result, nil
}

func (r *fakeInviteRepo) MarkInviteAccepted(inviteID string) (models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[inviteID]
	if !ok || invite.Status != models.InviteStatusPending {
		return models.Invite{}, sql.ErrNoRows
	}
	invite.Status = models.InviteStatusAccepted
	return *invite, nil
}

func (r *fakeInviteRepo) RevokeInvite(inviteID, projectID string) (models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[inviteID]
	if !ok || invite.ProjectID != projectID || invite.Status != models.InviteStatusPending {
		return models.Invite{}, sql.ErrNoRows
	}
	invite.Status = models.InviteStatusRevoked
	return *invite, nil
}

type fakeTaskRepo struct {
	mu       sync.Mutex
	seq      int
	tasks    map[string]*models.Task
	projects *fakeProjectRepo
}

func newFakeTaskRepo(projects *fakeProjectRepo) *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*models.Task), projects: projects}
}

func (r *fakeTaskRepo) CreateTask(task models.Task) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	task.ID = fmt.Sprintf("task-%d", r.seq)
	if task.Priority == "" {
		task.Priority = models.TaskPriorityLow
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	stored := task
	r.tasks[task.ID] = &stored
	return task, nil
}

func (r *fakeTaskRepo) GetTaskByID(taskID string) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return models.Task{}, sql.ErrNoRows
	}
	return *task, nil
}

func (r *fakeTaskRepo) ListTasksByProject(projectID string) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Task
	for _, task := range r.tasks {
		if task.ProjectID != nil && *task.ProjectID == projectID {
			result = append(result, *task)
		}
	}
	return result, nil
}

func (r *fakeTaskRepo) listForUser(userID string, memberProjects map[string]bool) []models.Task {
	var result []models.Task
	for _, task := range r.tasks {
		if task.ProjectID == nil {
			if task.OwnerID == userID {
				result = append(result, *task)
			}
			continue
		}
		if memberProjects[*task.ProjectID] {
			result = append(result, *task)
		}
	}
	return result
}

func (r *fakeTaskRepo) ListTasksForUser(userID string) ([]models.Task, error) {
	// Same union the SQL computes: personal tasks plus tasks in any project
	// the user owns or belongs to.
	member := make(map[string]bool)
	projects, err := r.projects.ListProjectsForUser(userID)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		member[p.ID] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listForUser(userID, member), nil
}

func (r *fakeTaskRepo) UpdateTask(task models.Task) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return models.Task{}, sql.ErrNoRows
	}
	task.UpdatedAt = time.Now()
	stored := task
	r.tasks[task.ID] = &stored
	return task, nil
}

func (r *fakeTaskRepo) DeleteTask(taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[taskID]; !ok {
		return sql.ErrNoRows
	}
	delete(r.tasks, taskID)
	return nil
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	urls  []string
	names []string
}

func (m *fakeMailer) SendInvite(recipientEmail, projectName, acceptURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("smtp unreachable")
	}
	m.sent = append(m.sent, recipientEmail)
	m.names = append(m.names, projectName)
	m.urls = append(m.urls, acceptURL)
	return nil
}
