package api

import (
	"net/http"

	"ca-backoffice/internal/database"

	"github.com/gin-gonic/gin"
)

type clientRequest struct {
	Name            string  `json:"name" binding:"required"`
	PAN             string  `json:"pan"`
	GSTIN           string  `json:"gstin"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	Address         string  `json:"address"`
	AssignedStaffID *string `json:"assigned_staff_id"`
}

func (s *Server) handleCreateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "name is required")
		return
	}

	client := &database.Client{
		Name:            req.Name,
		PAN:             req.PAN,
		GSTIN:           req.GSTIN,
		Email:           req.Email,
		Phone:           req.Phone,
		Address:         req.Address,
		AssignedStaffID: req.AssignedStaffID,
		Status:          "active",
	}

	if err := s.repo.CreateClient(c.Request.Context(), client); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to create client")
		return
	}

	s.audit(c, "client.create", "client", client.ID, "")
	successResponse(c, client)
}

func (s *Server) handleGetClient(c *gin.Context) {
	client, err := s.repo.GetClientByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch client")
		return
	}
	if client == nil {
		errorResponse(c, http.StatusNotFound, "Client not found")
		return
	}
	successResponse(c, client)
}

func (s *Server) handleListClients(c *gin.Context) {
	limit, offset := pagination(c)
	search := c.Query("search")
	assignedStaffID := c.Query("assigned_staff_id")

	clients, total, err := s.repo.ListClients(c.Request.Context(), search, assignedStaffID, limit, offset)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to list clients")
		return
	}
	listResponse(c, clients, total, limit, offset)
}

func (s *Server) handleUpdateClient(c *gin.Context) {
	id := c.Param("id")

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "name is required")
		return
	}

	existing, err := s.repo.GetClientByID(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch client")
		return
	}
	if existing == nil {
		errorResponse(c, http.StatusNotFound, "Client not found")
		return
	}

	existing.Name = req.Name
	existing.PAN = req.PAN
	existing.GSTIN = req.GSTIN
	existing.Email = req.Email
	existing.Phone = req.Phone
	existing.Address = req.Address
	existing.AssignedStaffID = req.AssignedStaffID

	if err := s.repo.UpdateClient(c.Request.Context(), existing); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to update client")
		return
	}

	s.audit(c, "client.update", "client", id, "")
	successResponse(c, existing)
}

func (s *Server) handleDeleteClient(c *gin.Context) {
	id := c.Param("id")

	if err := s.repo.DeleteClient(c.Request.Context(), id); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to delete client")
		return
	}

	s.audit(c, "client.delete", "client", id, "")
	successResponse(c, gin.H{"deleted": true})
}
