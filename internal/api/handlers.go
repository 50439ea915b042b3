package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"hoursandfuture.com/nexthours/internal/core"
	"hoursandfuture.com/nexthours/internal/store"
)

type APIHandler struct {
	sessions    *core.SessionManager
	chatService *core.ChatService
	logger      *zap.Logger
}

func NewAPIHandler(sessions *core.SessionManager, cs *core.ChatService, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{sessions: sessions, chatService: cs, logger: logger}
}

// SessionRequiredMiddleware rejects requests while nobody is logged in.
func (h *APIHandler) SessionRequiredMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.sessions.IsAuthenticated() {
			http.Error(w, "Not logged in", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeCurrentUser answers with the logged-in user, or 401 if the session
// was dropped by the last write.
func (h *APIHandler) writeCurrentUser(w http.ResponseWriter) {
	user, ok := h.sessions.CurrentUser()
	if !ok {
		http.Error(w, "Not logged in", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case strings.TrimSpace(req.Name) == "":
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	case strings.TrimSpace(req.Email) == "" || req.Password == "":
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	registered, err := h.sessions.IsRegistered(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("failed to look up account", zap.Error(err))
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}
	if registered {
		http.Error(w, "An account with this email already exists", http.StatusConflict)
		return
	}

	if err := h.sessions.Signup(r.Context(), req.Email, req.Name, req.Password); err != nil {
		h.logger.Error("failed to create account", zap.Error(err))
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	core.LoginResult
	User *store.User `json:"user,omitempty"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		http.Error(w, "Failed to log in", http.StatusInternalServerError)
		return
	}
	if !res.Success {
		writeJSON(w, http.StatusUnauthorized, LoginResponse{LoginResult: res})
		return
	}

	user, _ := h.sessions.CurrentUser()
	writeJSON(w, http.StatusOK, LoginResponse{LoginResult: res, User: &user})
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		http.Error(w, "Failed to log out", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	h.writeCurrentUser(w)
}

type SubscriptionRequest struct {
	Tier store.Tier `json:"tier"`
}

func (h *APIHandler) UpdateSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	var req SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.sessions.UpdateSubscription(r.Context(), req.Tier); err != nil {
		if errors.Is(err, core.ErrInvalidTier) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to update subscription", zap.String("tier", string(req.Tier)), zap.Error(err))
		http.Error(w, "Failed to update subscription", http.StatusInternalServerError)
		return
	}
	h.writeCurrentUser(w)
}

func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req core.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.sessions.UpdateUserProfile(r.Context(), req); err != nil {
		h.logger.Error("failed to update profile", zap.Error(err))
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}
	h.writeCurrentUser(w)
}

func (h *APIHandler) IncrementFreeUsageHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.IncrementFreeUsage(r.Context()); err != nil {
		h.logger.Error("failed to count free usage", zap.Error(err))
		http.Error(w, "Failed to count usage", http.StatusInternalServerError)
		return
	}
	h.writeCurrentUser(w)
}

func (h *APIHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chatService.History()
	if err != nil {
		h.chatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (h *APIHandler) GetChatHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	chat, found, err := h.chatService.Session(sessionID)
	if err != nil {
		h.chatError(w, err)
		return
	}
	if !found {
		http.Error(w, "Chat not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

type SaveChatRequest struct {
	SessionID string              `json:"sessionId,omitempty"`
	Messages  []store.ChatMessage `json:"messages"`
}

func (h *APIHandler) SaveChatHandler(w http.ResponseWriter, r *http.Request) {
	var req SaveChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		http.Error(w, "Messages cannot be empty", http.StatusBadRequest)
		return
	}
	hasAttachment, err := store.ValidateMessages(req.Messages)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if hasAttachment {
		if user, _ := h.sessions.CurrentUser(); user.SubscriptionTier != store.TierPremium {
			http.Error(w, core.ErrPremiumRequired.Error(), http.StatusPaymentRequired)
			return
		}
	}

	saved, err := h.sessions.SaveChatSession(r.Context(), req.Messages, req.SessionID)
	if err != nil {
		h.logger.Error("failed to save chat", zap.String("session_id", req.SessionID), zap.Error(err))
		http.Error(w, "Failed to save chat", http.StatusInternalServerError)
		return
	}
	if saved.ID == "" {
		http.Error(w, "Not logged in", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req core.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := h.chatService.Send(r.Context(), req)
	if err != nil {
		h.chatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *APIHandler) chatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotAuthenticated):
		http.Error(w, "Not logged in", http.StatusUnauthorized)
	case errors.Is(err, core.ErrFreeLimitReached), errors.Is(err, core.ErrPremiumRequired):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, core.ErrEmptyMessage), errors.Is(err, core.ErrBadAttachment), errors.Is(err, core.ErrBadRole):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, core.ErrChatNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("chat request failed", zap.Error(err))
		http.Error(w, "Failed to process chat", http.StatusInternalServerError)
	}
}
