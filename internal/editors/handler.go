package editors

import (
	"errors"
	"net/http"
	"time"

	"github.com/bissquit/fitgram/internal/pkg/ctxlog"
	"github.com/bissquit/fitgram/internal/pkg/httputil"
	"github.com/bissquit/fitgram/internal/pkg/initdata"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the editors module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new editors handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterRoutes registers the editor verification route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/verify-editor", h.VerifyEditor)
}

// RegisterDevPinRoutes registers the dev PIN route. Callers mount it only
// when the PIN is enabled and should wrap it in a rate limiter.
func (h *Handler) RegisterDevPinRoutes(r chi.Router) {
	r.Post("/auth/dev-pin", h.DevPin)
}

// VerifyEditorRequest is the body of POST /auth/verify-editor.
type VerifyEditorRequest struct {
	InitDataRaw string `json:"initDataRaw"`
}

// VerifyEditorResponse keeps the shape the Mini App client expects; it is
// not wrapped in the data envelope.
type VerifyEditorResponse struct {
	OK             bool       `json:"ok"`
	IsEditor       bool       `json:"is_editor"`
	TelegramUserID int64      `json:"tg_user_id,omitempty"`
	Token          string     `json:"token,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// DevPinRequest is the body of POST /auth/dev-pin.
type DevPinRequest struct {
	Pin string `json:"pin" validate:"required,max=128"`
}

// VerifyEditor handles POST /auth/verify-editor.
func (h *Handler) VerifyEditor(w http.ResponseWriter, r *http.Request) {
	var req VerifyEditorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || req.InitDataRaw == "" {
		httputil.JSON(w, http.StatusBadRequest, VerifyEditorResponse{Error: "no data"})
		return
	}

	v, err := h.service.VerifyEditor(r.Context(), req.InitDataRaw)
	if err != nil {
		switch {
		case errors.Is(err, initdata.ErrNoData):
			httputil.JSON(w, http.StatusBadRequest, VerifyEditorResponse{Error: "no data"})
		case errors.Is(err, initdata.ErrInvalidSignature), errors.Is(err, initdata.ErrExpired):
			httputil.JSON(w, http.StatusUnauthorized, VerifyEditorResponse{Error: "invalid init data"})
		default:
			ctxlog.FromContext(r.Context()).Error("verify editor failed", "error", err)
			httputil.JSON(w, http.StatusInternalServerError, VerifyEditorResponse{Error: "internal error"})
		}
		return
	}

	resp := VerifyEditorResponse{
		OK:             true,
		IsEditor:       v.IsEditor,
		TelegramUserID: v.TelegramUserID,
		Token:          v.Token,
	}
	if v.IsEditor {
		resp.ExpiresAt = &v.ExpiresAt
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// DevPin handles POST /auth/dev-pin.
func (h *Handler) DevPin(w http.ResponseWriter, r *http.Request) {
	var req DevPinRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	session, err := h.service.VerifyDevPin(r.Context(), req.Pin)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
			{Error: ErrInvalidPin, Status: http.StatusUnauthorized},
			{Error: ErrDevPinDisabled, Status: http.StatusNotFound, Message: "not found"},
		})
		return
	}

	httputil.Success(w, http.StatusOK, session)
}
