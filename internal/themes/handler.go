package themes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Handler wires HTTP endpoints for the theme catalogue.
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

// MountRoutes registers theme routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.add)
	r.Put("/status", h.updateStatus)
	r.Get("/", h.list)
}

type addPayload struct {
	Name string `json:"name" validate:"required,max=100"`
	Path string `json:"path" validate:"required,max=200"`
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	creatorID, err := uuid.Parse(shared.CurrentUserID(r.Context()))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotLoggedIn)
		return
	}
	var payload addPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	theme, err := h.service.Add(r.Context(), creatorID, payload.Name, payload.Path)
	if err != nil {
		if errors.Is(err, ErrDuplicateTheme) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		h.logger.Error("add theme", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, theme)
}

type statusPayload struct {
	ThemeID string `json:"theme_id" validate:"required,uuid4"`
	Status  string `json:"status" validate:"required,oneof=unknown merged"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	actorID, err := uuid.Parse(shared.CurrentUserID(r.Context()))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotLoggedIn)
		return
	}
	var payload statusPayload
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

	if err := h.service.UpdateStatus(r.Context(), actorID, themeID, Status(payload.Status)); err != nil {
		switch {
		case errors.Is(err, ErrNotCreator):
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnknownStatus):
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		default:
			h.logger.Error("update theme status", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	themes, err := h.service.ListMerged(r.Context())
	if err != nil {
		h.logger.Error("list themes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"themes": themes})
}
