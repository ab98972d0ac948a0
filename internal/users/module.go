// Package users is the read-only user directory: the assignment engine
// resolves targets through it and the API exposes role pickers.
package users

import (
	"context"
	"errors"
	"net/http"

	"fieldcrm_backend/internal/leads/assignment"
	"fieldcrm_backend/internal/leads/domain"
	"fieldcrm_backend/internal/users/repository"
	"fieldcrm_backend/platform/apperr"
	"fieldcrm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	Repository *repository.Repository
	Directory  *Directory
}

func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	return &Module{
		Repository: repo,
		Directory:  &Directory{repo: repo},
	}
}

// Directory adapts the users repository to the assignment engine's port.
type Directory struct {
	repo *repository.Repository
}

func (d *Directory) FindAssignee(ctx context.Context, id uuid.UUID) (assignment.Assignee, error) {
	user, err := d.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return assignment.Assignee{}, assignment.ErrAssigneeNotFound
	}
	if err != nil {
		return assignment.Assignee{}, err
	}
	return assignment.Assignee{
		ID:       user.ID,
		Name:     user.Name,
		Role:     user.Role,
		IsActive: user.IsActive,
	}, nil
}

// EmailFor resolves a user's address for mail delivery. A missing user
// yields an empty address, not an error.
func (d *Directory) EmailFor(ctx context.Context, id uuid.UUID) (string, error) {
	user, err := d.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	users := api.Group("/users")
	users.GET("/assignable", m.listAssignable)
}

// listAssignable returns active users of an assignable role for pickers.
func (m *Module) listAssignable(c *gin.Context) {
	role := domain.Role(c.Query("role"))
	if !role.Assignable() {
		httpkit.Error(c, http.StatusBadRequest, "role must be call_operator or technician", nil)
		return
	}

	found, err := m.Repository.ListByRole(c.Request.Context(), role)
	if err != nil {
		httpkit.HandleError(c, apperr.Persistence("could not list users", err))
		return
	}

	out := make([]userResponse, 0, len(found))
	for _, u := range found {
		out = append(out, userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)})
	}
	httpkit.OK(c, gin.H{"users": out})
}
