package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"messenger-backend/services"
)

type UserHandler struct {
	users   *services.UserService
	convos  *services.ConversationService
	authSvc *services.AuthService
}

func NewUserHandler(u *services.UserService, c *services.ConversationService, a *services.AuthService) *UserHandler {
	return &UserHandler{users: u, convos: c, authSvc: a}
}

// Create handles POST /api/users. Open to unauthenticated callers; this is
// registration.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.NewUser
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "bad request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.Create(r.Context(), req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithSuccess(w, http.StatusCreated, user.Truncate())
}

// Login handles POST /api/users/login. Credentials arrive as HTTP Basic
// authorization; a successful login yields a bearer token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Basic ") {
		respondWithError(w, "unsuccessful login", http.StatusBadRequest)
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
	if err != nil {
		respondWithError(w, "unsuccessful login", http.StatusBadRequest)
		return
	}
	userName, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		respondWithError(w, "unsuccessful login", http.StatusBadRequest)
		return
	}

	token, user, err := h.authSvc.Login(r.Context(), userName, password)
	if err != nil {
		respondWithError(w, "unsuccessful login", http.StatusBadRequest)
		return
	}

	respondWithSuccess(w, http.StatusCreated, map[string]any{
		"jsonWebToken": token,
		"userId":       user.ID,
	})
}

// Get handles GET /api/users/{userId} and returns the truncated view.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if user == nil {
		respondWithError(w, "user does not exist", http.StatusNotFound)
		return
	}

	respondWithSuccess(w, http.StatusOK, user.Truncate())
}

// Update handles PUT /api/users/{userId}. Users may only update themselves.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireSelf(w, r)
	if !ok {
		return
	}

	var req services.UpdateUser
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "bad request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.Update(r.Context(), userID, req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, user.Truncate())
}

// UpdatePassword handles PUT /api/users/{userId}/password.
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireSelf(w, r)
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "bad request body", http.StatusBadRequest)
		return
	}

	if err := h.users.UpdatePassword(r.Context(), userID, req.Password); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, "password updated")
}

// Delete handles DELETE /api/users/{userId}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireSelf(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), userID); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, "user deleted")
}

// Conversations handles GET /api/users/{userId}/conversations.
func (h *UserHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireSelf(w, r)
	if !ok {
		return
	}

	convos, err := h.convos.FindByUserID(r.Context(), userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, convos)
}

// requireSelf resolves {userId} and rejects requests targeting another user.
func (h *UserHandler) requireSelf(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return 0, false
	}

	requesterID, ok := UserIDFromContext(r.Context())
	if !ok || requesterID != userID {
		respondWithError(w, "forbidden", http.StatusForbidden)
		return 0, false
	}
	return userID, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil || id <= 0 {
		respondWithError(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
