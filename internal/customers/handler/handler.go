// Package handler exposes the customers HTTP API.
package handler

import (
	"net/http"
	"strconv"

	"fieldcrm_backend/internal/customers/conversion"
	"fieldcrm_backend/internal/customers/transport"
	"fieldcrm_backend/internal/leads/domain"
	"fieldcrm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	conversion *conversion.Service
}

func New(conv *conversion.Service) *Handler {
	return &Handler{conversion: conv}
}

func actorFrom(c *gin.Context) domain.Actor {
	id := httpkit.MustGetIdentity(c)
	return domain.Actor{
		ID:   id.UserID(),
		Name: id.Name(),
		Role: domain.Role(id.Role()),
	}
}

func (h *Handler) Convert(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	var req transport.ConvertLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	customer, err := h.conversion.Convert(c.Request.Context(), actorFrom(c), leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToCustomerResponse(customer))
}

func (h *Handler) Get(c *gin.Context) {
	customer, err := h.conversion.Get(c.Request.Context(), c.Param("customerId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCustomerResponse(customer))
}

func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	customers, total, err := h.conversion.List(c.Request.Context(), page, pageSize)
	if httpkit.HandleError(c, err) {
		return
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	httpkit.OK(c, transport.CustomerListResponse{
		Customers: transport.ToCustomerResponses(customers),
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
	})
}
