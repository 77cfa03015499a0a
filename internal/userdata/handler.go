package userdata

import (
	"net/http"

	"github.com/bissquit/fitgram/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the userdata module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new userdata handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterRoutes registers routes for verified Telegram users.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/progress", h.GetProgress)
	r.Put("/progress/{date}", h.MarkDone)
	r.Delete("/progress/{date}", h.Unmark)
	r.Get("/profile", h.GetProfile)
	r.Put("/profile", h.SaveProfile)
}

// ProgressResponse lists completed dates.
type ProgressResponse struct {
	CompletedDates []string `json:"completed_dates"`
}

// SaveProfileRequest is the body of PUT /me/profile.
type SaveProfileRequest struct {
	Name      string `json:"name" validate:"max=255"`
	Birthdate string `json:"birthdate" validate:"omitempty,datetime=2006-01-02"`
	Notes     string `json:"notes" validate:"max=4000"`
}

// GetProgress handles GET /me/progress.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	dates, err := h.service.Progress(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, ProgressResponse{CompletedDates: dates})
}

// MarkDone handles PUT /me/progress/{date}.
func (h *Handler) MarkDone(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	dates, err := h.service.MarkDone(r.Context(), userID, chi.URLParam(r, "date"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, ProgressResponse{CompletedDates: dates})
}

// Unmark handles DELETE /me/progress/{date}.
func (h *Handler) Unmark(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	dates, err := h.service.Unmark(r.Context(), userID, chi.URLParam(r, "date"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, ProgressResponse{CompletedDates: dates})
}

// GetProfile handles GET /me/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	profile, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, profile)
}

// SaveProfile handles PUT /me/profile.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	var req SaveProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	profile, err := h.service.SaveProfile(r.Context(), userID, ProfileInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, profile)
}

func userIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	user, ok := httputil.GetTelegramUser(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return user.ID, true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		{Error: ErrInvalidDate, Status: http.StatusBadRequest},
	})
}
