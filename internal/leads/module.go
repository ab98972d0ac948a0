// Package leads wires the lead lifecycle slice: intake, status transitions,
// assignment and call-later scheduling.
package leads

import (
	"fieldcrm_backend/internal/events"
	"fieldcrm_backend/internal/leads/assignment"
	"fieldcrm_backend/internal/leads/domain"
	"fieldcrm_backend/internal/leads/handler"
	"fieldcrm_backend/internal/leads/management"
	"fieldcrm_backend/internal/leads/repository"
	"fieldcrm_backend/internal/leads/scheduling"
	"fieldcrm_backend/internal/leads/status"
	"fieldcrm_backend/platform/config"
	"fieldcrm_backend/platform/httpkit"
	"fieldcrm_backend/platform/logger"
	"fieldcrm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	Repository *repository.Repository
	Management *management.Service
	Status     *status.Service
	Assignment *assignment.Service
	Scheduling *scheduling.Service

	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, users assignment.UserDirectory, bus events.Bus, cfg config.AssignmentConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	validate := validator.New()

	mgmt := management.NewService(repo, bus, validate, log)
	st := status.NewService(repo, bus, validate, log)
	asg := assignment.NewService(repo, users, bus, validate, log, cfg.GetStrictReassign())
	sched := scheduling.NewService(repo, bus, validate, log)

	return &Module{
		Repository: repo,
		Management: mgmt,
		Status:     st,
		Assignment: asg,
		Scheduling: sched,
		handler:    handler.New(mgmt, st, asg, sched),
	}
}

func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	leads := api.Group("/leads")

	leads.POST("", m.handler.Create)
	leads.GET("", m.handler.List)
	leads.GET("/unassigned", m.handler.ListUnassigned)
	leads.GET("/unassigned/count", m.handler.CountUnassigned)
	leads.GET("/counts", m.handler.StatusCounts)
	leads.GET("/due-today", m.handler.DueToday)
	leads.GET("/:id", m.handler.Get)
	leads.PATCH("/:id/status", m.handler.UpdateStatus)
	leads.POST("/:id/call-later", m.handler.ScheduleCallLater)
	leads.GET("/:id/call-later", m.handler.CallLaterHistory)
	leads.GET("/:id/calls", m.handler.CallHistory)

	assignOnly := httpkit.RequireRole(
		string(domain.RoleTeamLead),
		string(domain.RoleSuperAdmin),
	)
	leads.POST("/:id/assign", assignOnly, m.handler.Assign)
	leads.POST("/:id/reassign", assignOnly, m.handler.Reassign)
	leads.POST("/bulk-assign", assignOnly, m.handler.BulkAssign)

	leads.DELETE("/:id", httpkit.RequireRole(string(domain.RoleSuperAdmin)), m.handler.Delete)
}
