// Package http assembles the API server from feature modules.
package http

import "github.com/gin-gonic/gin"

// Module is a feature slice that mounts its routes on the authenticated API
// group.
type Module interface {
	RegisterRoutes(api *gin.RouterGroup)
}
