// Package customers wires the conversion slice: turning leads into customer
// records with business keys.
package customers

import (
	"fieldcrm_backend/internal/customers/conversion"
	"fieldcrm_backend/internal/customers/handler"
	"fieldcrm_backend/internal/customers/repository"
	"fieldcrm_backend/internal/events"
	leadsrepo "fieldcrm_backend/internal/leads/repository"
	"fieldcrm_backend/platform/logger"
	"fieldcrm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	Repository *repository.Repository
	Conversion *conversion.Service

	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, leads *leadsrepo.Repository, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	conv := conversion.NewService(repo, leads, bus, validator.New(), log)

	return &Module{
		Repository: repo,
		Conversion: conv,
		handler:    handler.New(conv),
	}
}

func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	customers := api.Group("/customers")
	customers.POST("/convert/:leadId", m.handler.Convert)
	customers.GET("", m.handler.List)
	customers.GET("/:customerId", m.handler.Get)
}
