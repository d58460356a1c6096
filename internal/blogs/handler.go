package blogs

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/inkwell-blog/inkwell/internal/authz"
	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Handler wires HTTP endpoints for blog management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers blog routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.ownDomain)
	r.Post("/{domain}", h.create)
	r.Put("/{domain}/theme", h.setTheme)
}

type createPayload struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID := shared.CurrentUserID(r.Context())
	if userID == "" {
		httpx.RespondError(w, shared.ErrNotLoggedIn)
		return
	}
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotLoggedIn)
		return
	}

	var payload createPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	domain := chi.URLParam(r, "domain")
	if _, err := h.service.Create(r.Context(), ownerID, domain, payload.Title, payload.Permissions); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyOwned), errors.Is(err, ErrDomainTaken):
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		default:
			h.logger.Error("create blog", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) ownDomain(w http.ResponseWriter, r *http.Request) {
	userID := shared.CurrentUserID(r.Context())
	if userID == "" {
		httpx.RespondError(w, shared.ErrNotLoggedIn)
		return
	}
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotLoggedIn)
		return
	}
	domain, err := h.service.Domain(r.Context(), ownerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "user has no blog")
			return
		}
		h.logger.Error("own domain", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"domain": domain})
}

type setThemePayload struct {
	ThemeID string `json:"theme_id" validate:"required,uuid4"`
}

func (h *Handler) setTheme(w http.ResponseWriter, r *http.Request) {
	var payload setThemePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	themeID, err := uuid.Parse(payload.ThemeID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid theme id")
		return
	}

	actor := shared.CurrentUsername(r.Context())
	domain := chi.URLParam(r, "domain")
	if err := h.service.SetTheme(r.Context(), actor, domain, themeID); err != nil {
		switch {
		case errors.Is(err, authz.ErrUnauthorized):
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		case errors.Is(err, shared.ErrNotFound):
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		default:
			h.logger.Error("set theme", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.NoContent(w)
}
