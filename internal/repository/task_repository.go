package repository

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/taskhive/taskhive-api/internal/models"
)

type TaskRepository interface {
	CreateTask(task models.Task) (models.Task, error)
	GetTaskByID(taskID string) (models.Task, error)
	ListTasksByProject(projectID string) ([]models.Task, error)
	// ListTasksForUser returns the caller's personal tasks plus every task
	// in a project the caller owns or belongs to.
	ListTasksForUser(userID string) ([]models.Task, error)
	UpdateTask(task models.Task) (models.Task, error)
	DeleteTask(taskID string) error
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, title, description, priority, due_date, tags, completed, completed_at, owner_id, project_id, created_at, updated_at`

func scanTask(row *sql.Row) (models.Task, error) {
	var task models.Task
	var tags pq.StringArray
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Priority,
		&task.DueDate,
		&tags,
		&task.Completed,
		&task.CompletedAt,
		&task.OwnerID,
		&task.ProjectID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}
	task.Tags = tags
	return task, nil
}

func (r *taskRepository) CreateTask(task models.Task) (models.Task, error) {
	if task.Priority == "" {
		task.Priority = models.TaskPriorityLow
	}
	const query = `
		INSERT INTO tasks (title, description, priority, due_date, tags, completed, completed_at, owner_id, project_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + taskColumns + `;
	`
	return scanTask(r.db.QueryRow(query,
		task.Title,
		task.Description,
		task.Priority,
		task.DueDate,
		pq.Array(task.Tags),
		task.Completed,
		task.CompletedAt,
		task.OwnerID,
		task.ProjectID,
	))
}

func (r *taskRepository) GetTaskByID(taskID string) (models.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1;
	`
	return scanTask(r.db.QueryRow(query, taskID))
}

func (r *taskRepository) listTasks(query string, args ...interface{}) ([]models.Task, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		var tags pq.StringArray
		if err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Priority,
			&task.DueDate,
			&tags,
			&task.Completed,
			&task.CompletedAt,
			&task.OwnerID,
			&task.ProjectID,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		task.Tags = tags
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) ListTasksByProject(projectID string) ([]models.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE project_id = $1
		ORDER BY created_at DESC;
	`
	return r.listTasks(query, projectID)
}

func (r *taskRepository) ListTasksForUser(userID string) ([]models.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE (owner_id = $1 AND project_id IS NULL)
		   OR project_id IN (
			SELECT p.id FROM projects p WHERE p.owner_id = $1
			UNION
			SELECT pm.project_id FROM project_members pm WHERE pm.user_id = $1
		   )
		ORDER BY created_at DESC;
	`
	return r.listTasks(query, userID)
}

func (r *taskRepository) UpdateTask(task models.Task) (models.Task, error) {
	const query = `
		UPDATE tasks
		SET title = $2, description = $3, priority = $4, due_date = $5, tags = $6,
		    completed = $7, completed_at = $8, updated_at = now()
		WHERE id = $1
		RETURNING ` + taskColumns + `;
	`
	return scanTask(r.db.QueryRow(query,
		task.ID,
		task.Title,
		task.Description,
		task.Priority,
		task.DueDate,
		pq.Array(task.Tags),
		task.Completed,
		task.CompletedAt,
	))
}

func (r *taskRepository) DeleteTask(taskID string) error {
	result, err := r.db.Exec(`DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
