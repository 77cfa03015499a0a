package content

import (
	"errors"
	"io"
	"net/http"

	"github.com/bissquit/fitgram/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the content module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new content handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterPublicRoutes registers the unauthenticated read routes.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/programs", h.ListPublishedPrograms)
	r.Get("/programs/{slug}", h.GetPublishedProgram)
}

// RegisterEditorRoutes registers management routes. The caller is
// responsible for mounting them behind editor authorization.
func (h *Handler) RegisterEditorRoutes(r chi.Router) {
	r.Route("/programs", func(r chi.Router) {
		r.Get("/", h.ListPrograms)
		r.Post("/", h.CreateProgram)
		r.Get("/{id}", h.GetProgram)
		r.Put("/{id}", h.UpdateProgram)
		r.Delete("/{id}", h.DeleteProgram)
		r.Post("/{id}/publish-toggle", h.TogglePublished)
		r.Post("/{id}/days", h.AddDay)
	})

	r.Route("/days", func(r chi.Router) {
		r.Get("/{id}", h.GetDay)
		r.Post("/{id}/exercises", h.AddExercise)
	})

	r.Route("/exercises", func(r chi.Router) {
		r.Get("/{id}", h.GetExercise)
		r.Put("/{id}", h.UpdateExercise)
		r.Delete("/{id}", h.DeleteExercise)
	})
}

// CreateProgramRequest represents the request body for creating a program.
type CreateProgramRequest struct {
	Slug        string `json:"slug" validate:"required,max=255,slug"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url" validate:"omitempty,max=2048"`
	DetailsMD   string `json:"details_md"`
	IsPublished bool   `json:"is_published"`
}

// UpdateProgramRequest represents a partial program update.
type UpdateProgramRequest struct {
	Slug        *string `json:"slug" validate:"omitempty,max=255,slug"`
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url" validate:"omitempty,max=2048"`
	DetailsMD   *string `json:"details_md"`
	IsPublished *bool   `json:"is_published"`
}

// AddDayRequest represents the request body for adding a day.
type AddDayRequest struct {
	DayIndex    *int   `json:"day_index" validate:"omitempty,gt=0,max=2147483647"`
	Title       string `json:"title" validate:"max=255"`
	Description string `json:"description"`
}

// AddExerciseRequest represents the request body for adding an exercise.
type AddExerciseRequest struct {
	OrderIndex  *int   `json:"order_index" validate:"omitempty,gt=0,max=2147483647"`
	Title       string `json:"title" validate:"required,max=255"`
	VideoURL    string `json:"video_url" validate:"omitempty,max=2048"`
	Description string `json:"description"`
}

// UpdateExerciseRequest represents a partial exercise update.
type UpdateExerciseRequest struct {
	OrderIndex  *int    `json:"order_index" validate:"omitempty,gt=0,max=2147483647"`
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	VideoURL    *string `json:"video_url" validate:"omitempty,max=2048"`
	Description *string `json:"description"`
}

// ListPublishedPrograms handles GET /programs.
func (h *Handler) ListPublishedPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := h.service.ListPublished(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, programs)
}

// GetPublishedProgram handles GET /programs/{slug}.
func (h *Handler) GetPublishedProgram(w http.ResponseWriter, r *http.Request) {
	program, err := h.service.GetPublishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, program)
}

// ListPrograms handles GET /admin/programs.
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := h.service.ListPrograms(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, programs)
}

// CreateProgram handles POST /admin/programs.
func (h *Handler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var req CreateProgramRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	program, err := h.service.CreateProgram(r.Context(), CreateProgramInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusCreated, program)
}

// GetProgram handles GET /admin/programs/{id}.
func (h *Handler) GetProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, ErrProgramNotFound)
	if !ok {
		return
	}

	program, err := h.service.GetProgram(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, program)
}

// UpdateProgram handles PUT /admin/programs/{id}.
func (h *Handler) UpdateProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, ErrProgramNotFound)
	if !ok {
		return
	}

	var req UpdateProgramRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	program, err := h.service.UpdateProgram(r.Context(), id, UpdateProgramInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, program)
}

// DeleteProgram handles DELETE /admin/programs/{id}.
func (h *Handler) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, ErrProgramNotFound)
	if !ok {
		return
	}

	if err := h.service.DeleteProgram(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TogglePublished handles POST /admin/programs/{id}/publish-toggle.
func (h *Handler) TogglePublished(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, ErrProgramNotFound)
	if !ok {
		return
	}

	program, err := h.service.TogglePublished(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, program)
}

// AddDay handles POST /admin/programs/{id}/days.
func (h *Handler) AddDay(w http.ResponseWriter, r *http.Request) {
	programID, ok := pathID(w, r, ErrProgramNotFound)
	if !ok {
		return
	}

	var req AddDayRequest
	if err := httputil.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	day, err := h.service.AddDay(r.Context(), programID, AddDayInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusCreated, day)
}

// GetDay handles GET /admin/days/{id}.
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, ErrDayNotFound)
	if !ok {
		return
	}

	day, err := h.service.GetDay(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, day)
}

// AddExercise handles POST /admin/days/{id}/exercises.
func (h *Handler) AddExercise(w http.ResponseWriter, r *http.Request) {
	dayID, ok := pathID(w, r, ErrDayNotFound)
	if !ok {
		return
	}

	var req AddExerciseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	exercise, err := h.service.AddExercise(r.Context(), dayID, AddExerciseInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusCreated, exercise)
}

// GetExercise handles GET /admin/exercises/{id}.
func (h *Handler) GetExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, ErrExerciseNotFound)
	if !ok {
		return
	}

	exercise, err := h.service.GetExercise(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, exercise)
}

// UpdateExercise handles PUT /admin/exercises/{id}.
func (h *Handler) UpdateExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, ErrExerciseNotFound)
	if !ok {
		return
	}

	var req UpdateExerciseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	exercise, err := h.service.UpdateExercise(r.Context(), id, UpdateExerciseInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, exercise)
}

// DeleteExercise handles DELETE /admin/exercises/{id}.
func (h *Handler) DeleteExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, ErrExerciseNotFound)
	if !ok {
		return
	}

	if err := h.service.DeleteExercise(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID extracts the {id} URL parameter. Values that are not UUIDs cannot
// name a stored row, so they are answered with notFound.
func pathID(w http.ResponseWriter, r *http.Request, notFound error) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httputil.Error(w, http.StatusNotFound, notFound.Error())
		return "", false
	}
	return id, true
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrProgramNotFound, Status: http.StatusNotFound},
	{Error: ErrDayNotFound, Status: http.StatusNotFound},
	{Error: ErrExerciseNotFound, Status: http.StatusNotFound},
	{Error: ErrSlugExists, Status: http.StatusConflict},
	{Error: ErrIndexTaken, Status: http.StatusConflict},
	{Error: ErrInvalidSlug, Status: http.StatusBadRequest},
	{Error: ErrTitleRequired, Status: http.StatusBadRequest},
	{Error: ErrInvalidIndex, Status: http.StatusBadRequest},
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.HandleError(r.Context(), w, err, errorMappings)
}
