// Package storage persists tasks through sqlx. The driver-specific packages
// (postgres, sqlite) open the connection and supply their schema; queries
// here are written with '?' placeholders and rebound per driver.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"taskapi/internal/models"
)

// ErrNotFound is returned when no task matches both the id and the owner.
var ErrNotFound = errors.New("task not found")

// NotFoundError names the task id that could not be found.
type NotFoundError struct {
	TaskID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Task with id %d not found", e.TaskID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Store wraps the shared connection pool.
type Store struct {
	db     *sqlx.DB
	schema []string
	logger *slog.Logger
	now    func() time.Time
}

// New wraps an open database. schema holds idempotent DDL run by Migrate.
func New(db *sqlx.DB, schema []string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, schema: schema, logger: logger, now: time.Now}
}

// SetClock replaces the time source used for created_at and updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate creates the tasks table and its indexes when missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Ping runs a trivial query to check connectivity.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.GetContext(ctx, &one, "SELECT 1"); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// InTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back otherwise; the connection is released either way.
func (s *Store) InTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{tx: tx, logger: s.logger, now: s.now}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Tx exposes task operations scoped to one transaction. Every lookup is
// filtered by owner as well as id.
type Tx struct {
	tx     *sqlx.Tx
	logger *slog.Logger
	now    func() time.Time
}

const taskColumns = `id, user_id, title, description, completed, created_at, updated_at`

func (t *Tx) query(q string) string {
	q = t.tx.Rebind(q)
	t.logger.Debug("sql", slog.String("query", q))
	return q
}

// timestamp returns the current time at the precision every backend keeps.
func (t *Tx) timestamp() time.Time {
	return t.now().UTC().Truncate(time.Microsecond)
}

// bump returns a modification time strictly after prev.
func (t *Tx) bump(prev time.Time) time.Time {
	next := t.timestamp()
	if !next.After(prev) {
		next = prev.Add(time.Microsecond)
	}
	return next
}

// ListTasks returns the owner's tasks, newest first. A nil completed
// returns every task.
func (t *Tx) ListTasks(ctx context.Context, ownerID string, completed *bool) ([]models.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{ownerID}
	if completed != nil {
		q += ` AND completed = ?`
		args = append(args, *completed)
	}
	q += ` ORDER BY created_at DESC, id DESC`

	tasks := []models.Task{}
	if err := t.tx.SelectContext(ctx, &tasks, t.query(q), args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask inserts an incomplete task for the owner.
func (t *Tx) CreateTask(ctx context.Context, ownerID string, in models.NewTask) (models.Task, error) {
	now := t.timestamp()

	var id int64
	err := t.tx.QueryRowxContext(ctx,
		t.query(`INSERT INTO tasks(user_id, title, description, completed, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?) RETURNING id`),
		ownerID, in.Title, in.Description, false, now, now,
	).Scan(&id)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t.GetTask(ctx, ownerID, id)
}

// GetTask fetches a task by id, visible only to its owner.
func (t *Tx) GetTask(ctx context.Context, ownerID string, id int64) (models.Task, error) {
	var task models.Task
	err := t.tx.GetContext(ctx, &task,
		t.query(`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`), id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, &NotFoundError{TaskID: id}
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// UpdateTask applies the supplied fields and bumps updated_at.
func (t *Tx) UpdateTask(ctx context.Context, ownerID string, id int64, changes models.TaskChanges) (models.Task, error) {
	current, err := t.GetTask(ctx, ownerID, id)
	if err != nil {
		return models.Task{}, err
	}

	if changes.Title != nil {
		current.Title = *changes.Title
	}
	if changes.DescriptionSet {
		current.Description = changes.Description
	}

	_, err = t.tx.ExecContext(ctx,
		t.query(`UPDATE tasks SET title = ?, description = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		current.Title, current.Description, t.bump(current.UpdatedAt), id, ownerID)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return t.GetTask(ctx, ownerID, id)
}

// ToggleTask flips the completed flag and bumps updated_at.
func (t *Tx) ToggleTask(ctx context.Context, ownerID string, id int64) (models.Task, error) {
	current, err := t.GetTask(ctx, ownerID, id)
	if err != nil {
		return models.Task{}, err
	}

	_, err = t.tx.ExecContext(ctx,
		t.query(`UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		!current.Completed, t.bump(current.UpdatedAt), id, ownerID)
	if err != nil {
		return models.Task{}, fmt.Errorf("toggle task: %w", err)
	}
	return t.GetTask(ctx, ownerID, id)
}

// DeleteTask removes a task permanently.
func (t *Tx) DeleteTask(ctx context.Context, ownerID string, id int64) error {
	res, err := t.tx.ExecContext(ctx, t.query(`DELETE FROM tasks WHERE id = ? AND user_id = ?`), id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &NotFoundError{TaskID: id}
	}
	return nil
}
