package media

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Handler wires HTTP endpoints for media.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers media routes on provided router. Downloads are
// public; uploading requires a logged-in user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/upload", h.upload)
	r.Get("/download/{extension}", h.download)
}

type uploadResponse struct {
	URLExtension string `json:"url_extension"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	uploaderID, err := uuid.Parse(shared.CurrentUserID(r.Context()))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotLoggedIn)
		return
	}

	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid multipart body")
		return
	}
	_, fh, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "missing file field")
		return
	}

	obj, err := h.service.Upload(r.Context(), uploaderID, fh)
	if err != nil {
		switch {
		case errors.Is(err, ErrTooLarge), errors.Is(err, ErrUnsupportedType):
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		default:
			h.logger.Error("upload media", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, uploadResponse{
		URLExtension: obj.URLExtension,
		ContentType:  obj.ContentType,
		Size:         obj.Size,
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	extension := chi.URLParam(r, "extension")
	reader, obj, err := h.service.Download(r.Context(), extension)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such media")
			return
		}
		h.logger.Error("download media", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	defer func() { _ = reader.Close() }()

	w.Header().Set("Content-Type", obj.ContentType)
	http.ServeContent(w, r, "", obj.CreatedAt, reader)
}
