// Package handler exposes the leads HTTP API.
package handler

import (
	"net/http"
	"strconv"

	"fieldcrm_backend/internal/leads/assignment"
	"fieldcrm_backend/internal/leads/domain"
	"fieldcrm_backend/internal/leads/management"
	"fieldcrm_backend/internal/leads/repository"
	"fieldcrm_backend/internal/leads/scheduling"
	"fieldcrm_backend/internal/leads/status"
	"fieldcrm_backend/internal/leads/transport"
	"fieldcrm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	management *management.Service
	status     *status.Service
	assignment *assignment.Service
	scheduling *scheduling.Service
}

func New(mgmt *management.Service, st *status.Service, asg *assignment.Service, sched *scheduling.Service) *Handler {
	return &Handler{management: mgmt, status: st, assignment: asg, scheduling: sched}
}

func actorFrom(c *gin.Context) domain.Actor {
	id := httpkit.MustGetIdentity(c)
	return domain.Actor{
		ID:   id.UserID(),
		Name: id.Name(),
		Role: domain.Role(id.Role()),
	}
}

func leadIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	lead, err := h.management.Create(c.Request.Context(), actorFrom(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToLeadResponse(lead))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	lead, err := h.management.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) List(c *gin.Context) {
	var query transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	leads, total, err := h.management.List(c.Request.Context(), actorFrom(c), query)
	if httpkit.HandleError(c, err) {
		return
	}

	page, pageSize := normalizePage(query.Page, query.PageSize)
	httpkit.OK(c, transport.LeadListResponse{
		Leads:    transport.ToLeadResponses(leads),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func unassignedFilterFrom(c *gin.Context) (repository.UnassignedFilter, bool) {
	switch c.Query("role") {
	case "", "both":
		return repository.UnassignedBoth, true
	case "call_operator":
		return repository.UnassignedToOperator, true
	case "technician":
		return repository.UnassignedToTechnician, true
	default:
		httpkit.Error(c, http.StatusBadRequest, "role must be call_operator, technician or both", nil)
		return "", false
	}
}

func (h *Handler) ListUnassigned(c *gin.Context) {
	filter, ok := unassignedFilterFrom(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	leads, total, err := h.management.ListUnassigned(c.Request.Context(), filter, page, pageSize)
	if httpkit.HandleError(c, err) {
		return
	}

	page, pageSize = normalizePage(page, pageSize)
	httpkit.OK(c, transport.LeadListResponse{
		Leads:    transport.ToLeadResponses(leads),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *Handler) CountUnassigned(c *gin.Context) {
	filter, ok := unassignedFilterFrom(c)
	if !ok {
		return
	}

	count, err := h.management.CountUnassigned(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"count": count})
}

func (h *Handler) StatusCounts(c *gin.Context) {
	counts, total, err := h.management.StatusCounts(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	out := make(map[string]int, len(counts))
	for s, n := range counts {
		out[string(s)] = n
	}
	httpkit.OK(c, transport.StatusCountsResponse{Counts: out, Total: total})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	lead, err := h.status.Transition(c.Request.Context(), actorFrom(c), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Assign(c *gin.Context) {
	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req transport.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	lead, err := h.assignment.Assign(c.Request.Context(), actorFrom(c), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Reassign(c *gin.Context) {
	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req transport.ReassignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	lead, err := h.assignment.Reassign(c.Request.Context(), actorFrom(c), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) BulkAssign(c *gin.Context) {
	var req transport.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	count, err := h.assignment.BulkAssign(c.Request.Context(), actorFrom(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BulkAssignResponse{AssignedCount: count})
}

func (h *Handler) ScheduleCallLater(c *gin.Context) {
	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req transport.ScheduleCallLaterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	lead, err := h.scheduling.Schedule(c.Request.Context(), actorFrom(c), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) DueToday(c *gin.Context) {
	leads, err := h.scheduling.DueToday(c.Request.Context(), actorFrom(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"leads": transport.ToLeadResponses(leads), "count": len(leads)})
}

func (h *Handler) CallLaterHistory(c *gin.Context) {
	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	logs, err := h.scheduling.History(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"history": transport.ToCallLaterLogResponses(logs)})
}

func (h *Handler) CallHistory(c *gin.Context) {
	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	logs, err := h.status.CallHistory(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"calls": transport.ToCallLogResponses(logs)})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	err := h.management.Delete(c.Request.Context(), actorFrom(c), id)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
