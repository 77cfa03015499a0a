package access

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/bissquit/fitgram/internal/domain"
	"github.com/bissquit/fitgram/internal/pkg/ctxlog"
	"github.com/bissquit/fitgram/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the access module.
type Handler struct {
	service       *Service
	validator     *validator.Validate
	webhookSecret string
}

// NewHandler creates a new access handler. An empty webhookSecret accepts
// unauthenticated webhook calls.
func NewHandler(service *Service, webhookSecret string) *Handler {
	return &Handler{
		service:       service,
		validator:     httputil.NewValidator(),
		webhookSecret: webhookSecret,
	}
}

// RegisterWebhookRoutes registers the inbound automation webhook.
func (h *Handler) RegisterWebhookRoutes(r chi.Router) {
	r.Post("/webhooks/access-grant", h.WebhookGrant)
}

// RegisterEditorRoutes registers routes that require editor authorization.
func (h *Handler) RegisterEditorRoutes(r chi.Router) {
	r.Post("/access-grants", h.EditorGrant)
}

// RegisterUserRoutes registers routes for verified Telegram users.
func (h *Handler) RegisterUserRoutes(r chi.Router) {
	r.Post("/session", h.Session)
	r.Get("/access", h.Access)
}

// WebhookResponse is the response shape expected by webhook senders.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data"`
}

// GrantData is the data of a successful grant.
type GrantData struct {
	UserID    int64     `json:"tg_user_id"`
	Plan      string    `json:"plan"`
	ExpiresAt time.Time `json:"expires_at"`
	IDField   string    `json:"id_field,omitempty"`
}

// EditorGrantRequest is the body of POST /admin/access-grants.
type EditorGrantRequest struct {
	UserID       int64  `json:"tg_user_id" validate:"required,gt=0"`
	DurationDays *int   `json:"duration_days" validate:"omitempty,gt=0,max=36500"`
	Plan         string `json:"plan" validate:"max=64"`
}

// SessionResponse is returned by POST /me/session.
type SessionResponse struct {
	User   *domain.User `json:"user"`
	Access *Status      `json:"access"`
}

// WebhookGrant handles POST /webhooks/access-grant.
func (h *Handler) WebhookGrant(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(r.Context())

	if !h.webhookAuthorized(r) {
		logger.Warn("webhook rejected: bad secret")
		httputil.JSON(w, http.StatusUnauthorized, WebhookResponse{
			Message: "unauthorized",
			Error:   "unauthorized",
		})
		return
	}

	payload, err := ReadPayload(r)
	if err != nil {
		h.service.RecordRejected(SourceWebhook, "")
		httputil.JSON(w, http.StatusBadRequest, WebhookResponse{
			Message: err.Error(),
			Error:   "invalid_payload",
		})
		return
	}

	req, err := ResolveGrant(payload)
	if err != nil {
		h.service.RecordRejected(SourceWebhook, req.IDField)
		h.writeGrantValidationError(w, r, payload, err)
		return
	}

	logger.Info("webhook user id resolved", "id_field", req.IDField, "tg_user_id", req.UserID)

	sub, err := h.service.Grant(r.Context(), SourceWebhook, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			httputil.JSON(w, http.StatusNotFound, WebhookResponse{
				Message: ErrUserNotFound.Error(),
				Error:   "user_not_found",
				Data:    map[string]any{"tg_user_id": req.UserID, "id_field": req.IDField},
			})
		default:
			logger.Error("webhook grant failed", "error", err)
			httputil.JSON(w, http.StatusInternalServerError, WebhookResponse{
				Message: "internal error",
				Error:   "internal_error",
			})
		}
		return
	}

	httputil.JSON(w, http.StatusOK, WebhookResponse{
		Success: true,
		Message: "access granted",
		Data:    grantData(sub, req.IDField),
	})
}

func (h *Handler) writeGrantValidationError(w http.ResponseWriter, r *http.Request, payload Payload, err error) {
	resp := WebhookResponse{Message: err.Error()}

	switch {
	case errors.Is(err, ErrMissingUserID):
		fields := payload.Fields()
		ctxlog.FromContext(r.Context()).Warn("webhook without user id", "received_fields", fields)
		resp.Error = "missing_user_id"
		resp.Data = map[string]any{
			"received_fields": fields,
			"accepted_fields": UserIDFields,
		}
	case errors.Is(err, ErrInvalidUserID):
		resp.Error = "invalid_user_id"
	case errors.Is(err, ErrInvalidDuration):
		resp.Error = "invalid_duration"
	default:
		resp.Error = "invalid_payload"
	}

	httputil.JSON(w, http.StatusBadRequest, resp)
}

func (h *Handler) webhookAuthorized(r *http.Request) bool {
	if h.webhookSecret == "" {
		return true
	}
	got := r.Header.Get("X-Webhook-Secret")
	if got == "" {
		got = r.URL.Query().Get("token")
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) == 1
}

// EditorGrant handles POST /admin/access-grants.
func (h *Handler) EditorGrant(w http.ResponseWriter, r *http.Request) {
	var req EditorGrantRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	grant := GrantRequest{
		UserID:       req.UserID,
		IDField:      "tg_user_id",
		DurationDays: DefaultDurationDays,
		Plan:         req.Plan,
	}
	if req.DurationDays != nil {
		grant.DurationDays = *req.DurationDays
	}

	sub, err := h.service.Grant(r.Context(), SourceEditor, grant)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, grantData(sub, ""))
}

// Session handles POST /me/session.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	tgUser, ok := httputil.GetTelegramUser(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.service.RegisterUser(r.Context(), &domain.User{
		TelegramID: tgUser.ID,
		Username:   tgUser.Username,
		FirstName:  tgUser.FirstName,
		LastName:   tgUser.LastName,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	status, err := h.service.Status(r.Context(), user.TelegramID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, SessionResponse{User: user, Access: status})
}

// Access handles GET /me/access.
func (h *Handler) Access(w http.ResponseWriter, r *http.Request) {
	tgUser, ok := httputil.GetTelegramUser(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	status, err := h.service.Status(r.Context(), tgUser.ID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, status)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		{Error: ErrUserNotFound, Status: http.StatusNotFound},
		{Error: ErrInvalidDuration, Status: http.StatusBadRequest},
	})
}

func grantData(sub *domain.Subscription, idField string) GrantData {
	return GrantData{
		UserID:    sub.UserID,
		Plan:      sub.Plan,
		ExpiresAt: sub.ExpiresAt,
		IDField:   idField,
	}
}
