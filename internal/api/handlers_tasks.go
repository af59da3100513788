package api

import (
	"net/http"
	"time"

	"ca-backoffice/internal/database"
	"ca-backoffice/internal/events"

	"github.com/gin-gonic/gin"
)

type taskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	ClientID    *string    `json:"client_id"`
	AssigneeID  *string    `json:"assignee_id"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func validPriority(p string) bool {
	switch p {
	case database.PriorityLow, database.PriorityNormal, database.PriorityHigh, database.PriorityUrgent:
		return true
	}
	return false
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "title is required")
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = database.PriorityNormal
	}
	if !validPriority(priority) {
		errorResponse(c, http.StatusBadRequest, "priority must be low, normal, high or urgent")
		return
	}

	task := &database.Task{
		Title:       req.Title,
		Description: req.Description,
		ClientID:    req.ClientID,
		AssigneeID:  req.AssigneeID,
		Priority:    priority,
		Status:      database.TaskOpen,
		DueDate:     req.DueDate,
	}

	if err := s.repo.CreateTask(c.Request.Context(), task); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to create task")
		return
	}

	s.audit(c, "task.create", "task", task.ID, "")
	if task.AssigneeID != nil {
		s.eventBus.PublishData(events.EventTaskAssigned, map[string]interface{}{
			"task_id":     task.ID,
			"title":       task.Title,
			"assignee_id": *task.AssigneeID,
		})
	}
	successResponse(c, task)
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.repo.GetTaskByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch task")
		return
	}
	if task == nil {
		errorResponse(c, http.StatusNotFound, "Task not found")
		return
	}
	successResponse(c, task)
}

func (s *Server) handleListTasks(c *gin.Context) {
	limit, offset := pagination(c)

	tasks, total, err := s.repo.ListTasks(c.Request.Context(),
		c.Query("status"), c.Query("assignee_id"), c.Query("client_id"), limit, offset)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to list tasks")
		return
	}
	listResponse(c, tasks, total, limit, offset)
}

type updateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	ClientID    *string    `json:"client_id"`
	AssigneeID  *string    `json:"assignee_id"`
	Priority    string     `json:"priority" binding:"required"`
	Status      string     `json:"status" binding:"required"`
	DueDate     *time.Time `json:"due_date"`
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id := c.Param("id")

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "title, priority and status are required")
		return
	}
	if !validPriority(req.Priority) {
		errorResponse(c, http.StatusBadRequest, "priority must be low, normal, high or urgent")
		return
	}
	switch req.Status {
	case database.TaskOpen, database.TaskInProgress, database.TaskCompleted, database.TaskCancelled:
	default:
		errorResponse(c, http.StatusBadRequest, "invalid task status")
		return
	}

	existing, err := s.repo.GetTaskByID(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch task")
		return
	}
	if existing == nil {
		errorResponse(c, http.StatusNotFound, "Task not found")
		return
	}

	reassigned := req.AssigneeID != nil &&
		(existing.AssigneeID == nil || *existing.AssigneeID != *req.AssigneeID)

	existing.Title = req.Title
	existing.Description = req.Description
	existing.ClientID = req.ClientID
	existing.AssigneeID = req.AssigneeID
	existing.Priority = req.Priority
	existing.Status = req.Status
	existing.DueDate = req.DueDate

	if err := s.repo.UpdateTask(c.Request.Context(), existing); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to update task")
		return
	}

	s.audit(c, "task.update", "task", id, "")
	if reassigned {
		s.eventBus.PublishData(events.EventTaskAssigned, map[string]interface{}{
			"task_id":     id,
			"title":       existing.Title,
			"assignee_id": *req.AssigneeID,
		})
	}
	successResponse(c, existing)
}

func (s *Server) handleCompleteTask(c *gin.Context) {
	id := c.Param("id")

	if err := s.repo.CompleteTask(c.Request.Context(), id); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to complete task")
		return
	}

	s.audit(c, "task.complete", "task", id, "")
	s.eventBus.PublishData(events.EventTaskCompleted, map[string]interface{}{
		"task_id": id,
	})
	successResponse(c, gin.H{"id": id, "status": database.TaskCompleted})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id := c.Param("id")

	if err := s.repo.DeleteTask(c.Request.Context(), id); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to delete task")
		return
	}

	s.audit(c, "task.delete", "task", id, "")
	successResponse(c, gin.H{"deleted": true})
}
