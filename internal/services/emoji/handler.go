package emoji

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/zentra/emojimatch/internal/middleware"
	"github.com/zentra/emojimatch/internal/models"
	"github.com/zentra/emojimatch/internal/utils"
	"github.com/zentra/emojimatch/pkg/auth"
	"github.com/zentra/emojimatch/pkg/storage"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type objectRequest struct {
	Object string `json:"object"`
}

func (h *Handler) Routes(jwtSecret string) chi.Router {
	r := chi.NewRouter()

	// Public reads
	r.Get("/", h.ListEmojis)
	r.Get("/{id}", h.GetEmoji)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(jwtSecret))

		// UI state can be changed by any player
		r.Patch("/{id}", h.UpdateFlags)

		// Catalog management
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			r.Post("/", h.CreateEmoji)
			r.Put("/", h.ReplaceCatalog)
			r.Delete("/", h.ClearCatalog)
			r.Post("/import", h.ImportFromObject)
			r.Post("/export", h.ExportToObject)
		})
	})

	return r
}

func (h *Handler) ListEmojis(w http.ResponseWriter, r *http.Request) {
	emojis, err := h.service.ListEmojis(r.Context())
	if err != nil {
		h.respondError(w, r, err, "Failed to fetch emojis")
		return
	}
	utils.RespondSuccess(w, emojis)
}

func (h *Handler) GetEmoji(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseInt64Param(chi.URLParam(r, "id"))
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "Invalid emoji ID")
		return
	}

	e, err := h.service.GetEmoji(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "Failed to fetch emoji")
		return
	}
	utils.RespondSuccess(w, e)
}

func (h *Handler) CreateEmoji(w http.ResponseWriter, r *http.Request) {
	var in models.EmojiInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	e, err := h.service.CreateEmoji(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err, "Failed to create emoji")
		return
	}
	utils.RespondCreated(w, e)
}

// ReplaceCatalog loads a full dataset from the request body
func (h *Handler) ReplaceCatalog(w http.ResponseWriter, r *http.Request) {
	var inputs []models.EmojiInput
	if err := utils.DecodeJSON(r, &inputs); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	n, err := h.service.ImportDataset(r.Context(), inputs)
	if err != nil {
		h.respondError(w, r, err, "Failed to replace emoji catalog")
		return
	}
	utils.RespondSuccess(w, map[string]int{"count": n})
}

func (h *Handler) UpdateFlags(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseInt64Param(chi.URLParam(r, "id"))
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "Invalid emoji ID")
		return
	}

	var patch models.EmojiFlagsPatch
	if err := utils.DecodeJSON(r, &patch); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	e, err := h.service.UpdateFlags(r.Context(), id, patch)
	if err != nil {
		h.respondError(w, r, err, "Failed to update emoji")
		return
	}
	utils.RespondSuccess(w, e)
}

func (h *Handler) ClearCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCatalog(r.Context()); err != nil {
		h.respondError(w, r, err, "Failed to clear emoji catalog")
		return
	}
	utils.RespondNoContent(w)
}

func (h *Handler) ImportFromObject(w http.ResponseWriter, r *http.Request) {
	var req objectRequest
	if err := utils.DecodeJSON(r, &req); err != nil || req.Object == "" {
		utils.RespondError(w, http.StatusBadRequest, "Object name is required")
		return
	}

	n, err := h.service.ImportFromObject(r.Context(), utils.SanitizeString(req.Object))
	if err != nil {
		h.respondError(w, r, err, "Failed to import emoji dataset")
		return
	}
	utils.RespondSuccess(w, map[string]int{"count": n})
}

// ExportToObject accepts an empty body for a timestamped object name
func (h *Handler) ExportToObject(w http.ResponseWriter, r *http.Request) {
	var req objectRequest
	if err := utils.DecodeOptionalJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	object, err := h.service.ExportToObject(r.Context(), utils.SanitizeString(req.Object))
	if err != nil {
		h.respondError(w, r, err, "Failed to export emoji dataset")
		return
	}
	utils.RespondSuccess(w, map[string]string{"object": object})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *utils.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.RespondValidationError(w, verr.Details)
	case errors.Is(err, ErrEmojiNotFound):
		utils.RespondError(w, http.StatusNotFound, "Emoji not found")
	case errors.Is(err, ErrEmojiExists):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrDuplicateID),
		errors.Is(err, ErrEmptyDataset),
		errors.Is(err, ErrEmptyPatch),
		errors.Is(err, storage.ErrInvalidObjectName):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrObjectNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrDatasetTooLarge):
		utils.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, ErrStorageUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg(fallback)
		utils.RespondError(w, http.StatusInternalServerError, fallback)
	}
}
