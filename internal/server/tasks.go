package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskapi/internal/models"
	"taskapi/internal/storage"
)

// handleListTasks returns the owner's tasks, optionally filtered by status.
func (s *Server) handleListTasks(c *gin.Context) {
	filter, ok := models.ParseStatusFilter(c.Query("status"))
	if !ok {
		s.respondError(c, models.Invalid("query.status", "Input should be 'all', 'pending' or 'completed'", "enum"))
		return
	}

	ctx := c.Request.Context()
	owner := ownerFromPath(c)

	var tasks []models.Task
	err := s.store.InTx(ctx, func(tx *storage.Tx) error {
		var err error
		tasks, err = tx.ListTasks(ctx, owner, filter.Completed())
		return err
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, tasks)
}

// handleCreateTask inserts a new task for the owner.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req models.TaskCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, models.DecodeError(err))
		return
	}
	in, err := req.Validate()
	if err != nil {
		s.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	owner := ownerFromPath(c)

	var task models.Task
	err = s.store.InTx(ctx, func(tx *storage.Tx) error {
		var err error
		task, err = tx.CreateTask(ctx, owner, in)
		return err
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, task)
}

// handleGetTask returns one task.
func (s *Server) handleGetTask(c *gin.Context) {
	id, err := parseTaskID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	owner := ownerFromPath(c)

	var task models.Task
	err = s.store.InTx(ctx, func(tx *storage.Tx) error {
		var err error
		task, err = tx.GetTask(ctx, owner, id)
		return err
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleUpdateTask replaces the title and/or description of a task.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, err := parseTaskID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	var req models.TaskUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, models.DecodeError(err))
		return
	}
	changes, err := req.Validate()
	if err != nil {
		s.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	owner := ownerFromPath(c)

	var task models.Task
	err = s.store.InTx(ctx, func(tx *storage.Tx) error {
		var err error
		task, err = tx.UpdateTask(ctx, owner, id, changes)
		return err
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, err := parseTaskID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	owner := ownerFromPath(c)

	err = s.store.InTx(ctx, func(tx *storage.Tx) error {
		return tx.DeleteTask(ctx, owner, id)
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusNoContent, nil)
}

// handleToggleTask flips the completion flag of a task.
func (s *Server) handleToggleTask(c *gin.Context) {
	id, err := parseTaskID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	owner := ownerFromPath(c)

	var task models.Task
	err = s.store.InTx(ctx, func(tx *storage.Tx) error {
		var err error
		task, err = tx.ToggleTask(ctx, owner, id)
		return err
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}
