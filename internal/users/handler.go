package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/textileco/pettycash/internal/platform/httpx"
	"github.com/textileco/pettycash/internal/shared"
)

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Patch("/{id}", h.updateUser)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	users, err := h.service.ListUsers(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if users == nil {
		users = []User{}
	}
	httpx.JSON(w, http.StatusOK, users)
}

type createUserPayload struct {
	Name       string      `json:"name" validate:"required,max=200"`
	Email      string      `json:"email" validate:"required,email"`
	Phone      string      `json:"phone" validate:"max=30"`
	Role       shared.Role `json:"role" validate:"required"`
	Department string      `json:"department" validate:"max=100"`
	Password   string      `json:"password" validate:"required,min=6"`
}

type createdUser struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  shared.Role `json:"role"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var payload createUserPayload
	if err := httpx.Bind(r, h.validator, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	u, err := h.service.CreateUser(r.Context(), actor, CreateInput(payload))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("user created", slog.String("user_id", u.ID.String()), slog.String("role", string(u.Role)))
	httpx.JSON(w, http.StatusCreated, createdUser{ID: u.ID.String(), Name: u.Name, Email: u.Email, Role: u.Role})
}

type updateUserPayload struct {
	Name       *string      `json:"name" validate:"omitempty,max=200"`
	Phone      *string      `json:"phone" validate:"omitempty,max=30"`
	Role       *shared.Role `json:"role"`
	Department *string      `json:"department" validate:"omitempty,max=100"`
	Status     *string      `json:"status"`
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var payload updateUserPayload
	if err := httpx.Bind(r, h.validator, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	if err := h.service.UpdateUser(r.Context(), actor, id, UpdateInput(payload)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w)
}
