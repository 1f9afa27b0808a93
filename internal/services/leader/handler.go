package leader

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

func (h *Handler) Routes(jwtSecret string) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListLeaders)
	r.Get("/{id}", h.GetLeader)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(jwtSecret))
		r.Post("/", h.SubmitLeader)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			r.Delete("/{id}", h.DeleteLeader)
			r.Post("/export", h.ExportToObject)
		})
	})

	return r
}

func (h *Handler) ListLeaders(w http.ResponseWriter, r *http.Request) {
	page, ok := utils.GetQueryInt(r, "page", 1)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "Invalid page")
		return
	}
	pageSize, ok := utils.GetQueryInt(r, "pageSize", utils.DefaultPageSize)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "Invalid pageSize")
		return
	}

	result, err := h.service.ListLeaders(r.Context(), page, pageSize)
	if err != nil {
		h.respondError(w, r, err, "Failed to fetch leaders")
		return
	}

	utils.RespondPaginated(w, result.Leaders, result.Total, result.Page, result.PageSize)
}

func (h *Handler) GetLeader(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseInt64Param(chi.URLParam(r, "id"))
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "Invalid leader ID")
		return
	}

	l, err := h.service.GetLeader(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "Failed to fetch leader")
		return
	}
	utils.RespondSuccess(w, l)
}

func (h *Handler) SubmitLeader(w http.ResponseWriter, r *http.Request) {
	var sub models.LeaderSubmission
	if err := utils.DecodeJSON(r, &sub); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	l, err := h.service.SubmitLeader(r.Context(), sub)
	if err != nil {
		h.respondError(w, r, err, "Failed to record leader")
		return
	}
	utils.RespondCreated(w, l)
}

func (h *Handler) DeleteLeader(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseInt64Param(chi.URLParam(r, "id"))
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "Invalid leader ID")
		return
	}

	if err := h.service.DeleteLeader(r.Context(), id); err != nil {
		h.respondError(w, r, err, "Failed to delete leader")
		return
	}
	utils.RespondNoContent(w)
}

func (h *Handler) ExportToObject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Object string `json:"object"`
	}
	if err := utils.DecodeOptionalJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	object, err := h.service.ExportToObject(r.Context(), utils.SanitizeString(req.Object))
	if err != nil {
		h.respondError(w, r, err, "Failed to export leaders")
		return
	}
	utils.RespondSuccess(w, map[string]string{"object": object})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *utils.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.RespondValidationError(w, verr.Details)
	case errors.Is(err, ErrLeaderNotFound):
		utils.RespondError(w, http.StatusNotFound, "Leader not found")
	case errors.Is(err, ErrInvalidPage), errors.Is(err, storage.ErrInvalidObjectName):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrStorageUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg(fallback)
		utils.RespondError(w, http.StatusInternalServerError, fallback)
	}
}
