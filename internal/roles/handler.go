package roles

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/inkwell-blog/inkwell/internal/authz"
	"github.com/inkwell-blog/inkwell/internal/blogs"
	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/shared"
	"github.com/inkwell-blog/inkwell/internal/users"
)

// Handler wires HTTP endpoints for role management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers role routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Put("/", h.update)
	r.Delete("/", h.remove)
	r.Put("/permissions/add", h.addPermissions)
	r.Put("/permissions/remove", h.removePermissions)
	r.Post("/give", h.give)
	r.Post("/take", h.take)
	r.Get("/created", h.createdByMe)
	r.Get("/{domain}", h.listRoles)
	r.Get("/{domain}/user/{username}", h.rolesForUser)
	r.Get("/{domain}/permission/{permission}/users", h.usersWithPermission)
	r.Get("/{domain}/{role}/permissions", h.listPermissions)
	r.Get("/{domain}/{role}/users", h.listUsers)
}

type rolePayload struct {
	Domain      string   `json:"domain_name" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Permissions []string `json:"permissions"`
}

type assignPayload struct {
	Domain   string `json:"domain_name" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// actor pulls the authenticated caller out of the session context. Role
// mutations are never anonymous.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	username := shared.CurrentUsername(r.Context())
	id, err := uuid.Parse(shared.CurrentUserID(r.Context()))
	if username == "" || err != nil {
		httpx.RespondError(w, shared.ErrNotLoggedIn)
		return uuid.Nil, "", false
	}
	return id, username, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, payload any) bool {
	if err := httpx.DecodeJSON(r, payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return false
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

// respondMutationError maps service errors for mutation endpoints. The
// original API treats missing blogs, users, and roles on mutation paths as
// client mistakes, so they render 400 rather than 404.
func (h *Handler) respondMutationError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, authz.ErrUnauthorized):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, blogs.ErrNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, ErrRoleNotFound),
		errors.Is(err, ErrDuplicateRole),
		errors.Is(err, ErrInvalidName):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actorID, actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var payload rolePayload
	if !h.decode(w, r, &payload) {
		return
	}
	if err := h.service.Create(r.Context(), actorID, actor, payload.Domain, payload.Name, payload.Permissions); err != nil {
		h.respondMutationError(w, "create role", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actorID, actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var payload rolePayload
	if !h.decode(w, r, &payload) {
		return
	}
	if err := h.service.SetPermissions(r.Context(), actorID, actor, payload.Domain, payload.Name, payload.Permissions); err != nil {
		h.respondMutationError(w, "update role", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	actorID, actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var payload rolePayload
	if !h.decode(w, r, &payload) {
		return
	}
	if err := h.service.Delete(r.Context(), actorID, actor, payload.Domain, payload.Name); err != nil {
		h.respondMutationError(w, "delete role", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) addPermissions(w http.ResponseWriter, r *http.Request) {
	actorID, actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var payload rolePayload
	if !h.decode(w, r, &payload) {
		return
	}
	if err := h.service.AddPermissions(r.Context(), actorID, actor, payload.Domain, payload.Name, payload.Permissions); err != nil {
		h.respondMutationError(w, "add role permissions", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) removePermissions(w http.ResponseWriter, r *http.Request) {
	actorID, actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var payload rolePayload
	if !h.decode(w, r, &payload) {
		return
	}
	if err := h.service.RemovePermissions(r.Context(), actorID, actor, payload.Domain, payload.Name, payload.Permissions); err != nil {
		h.respondMutationError(w, "remove role permissions", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) give(w http.ResponseWriter, r *http.Request) {
	actorID, actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var payload assignPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if err := h.service.Give(r.Context(), actorID, actor, payload.Domain, payload.Name, payload.Username); err != nil {
		h.respondMutationError(w, "give role", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) take(w http.ResponseWriter, r *http.Request) {
	actorID, actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var payload assignPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if err := h.service.Take(r.Context(), actorID, actor, payload.Domain, payload.Name, payload.Username); err != nil {
		h.respondMutationError(w, "take role", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) createdByMe(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := h.actor(w, r)
	if !ok {
		return
	}
	created, err := h.service.CreatedBy(r.Context(), actorID)
	if err != nil {
		h.logger.Error("roles created by", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": created})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.RoleNames(r.Context(), chi.URLParam(r, "domain"))
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": names})
}

func (h *Handler) rolesForUser(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.RolesForUser(r.Context(), chi.URLParam(r, "domain"), chi.URLParam(r, "username"))
	if err != nil {
		h.logger.Error("roles for user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": names})
}

func (h *Handler) usersWithPermission(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.UsersWithPermission(r.Context(), chi.URLParam(r, "domain"), chi.URLParam(r, "permission"))
	if err != nil {
		h.logger.Error("users with permission", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": names})
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.Permissions(r.Context(), chi.URLParam(r, "domain"), chi.URLParam(r, "role"))
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		h.logger.Error("list role permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": names})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.UsersWithRole(r.Context(), chi.URLParam(r, "domain"), chi.URLParam(r, "role"))
	if err != nil {
		h.logger.Error("list role users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": names})
}
