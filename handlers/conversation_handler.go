package handlers

import (
	"encoding/json"
	"net/http"

	"messenger-backend/models"
	"messenger-backend/services"
)

type ConversationHandler struct {
	convos *services.ConversationService
}

func NewConversationHandler(c *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{convos: c}
}

// Create handles POST /api/conversations. The creator becomes the first
// member.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	requesterID, _ := UserIDFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "bad request body", http.StatusBadRequest)
		return
	}

	convo, err := h.convos.Create(r.Context(), req.Name, requesterID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithSuccess(w, http.StatusCreated, convo)
}

// Get handles GET /api/conversations/{conversationId}; members only. The
// response includes the member list as truncated users.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	convo, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	users, err := h.convos.GetUsers(r.Context(), convo.ID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	truncated := make([]models.TruncatedUser, 0, len(users))
	for i := range users {
		truncated = append(truncated, users[i].Truncate())
	}

	respondWithSuccess(w, http.StatusOK, map[string]any{
		"id":    convo.ID,
		"name":  convo.Name,
		"users": truncated,
	})
}

// Update handles PUT /api/conversations/{conversationId}; members only.
func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	convo, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "bad request body", http.StatusBadRequest)
		return
	}

	updated, err := h.convos.Update(r.Context(), convo.ID, req.Name)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, updated)
}

// AddMember handles POST /api/conversations/{conversationId}/users. Only an
// existing member may add another user, and adding a member twice is
// rejected.
func (h *ConversationHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	convo, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	var req struct {
		UserIDToAdd int `json:"userIdToAdd"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserIDToAdd <= 0 {
		respondWithError(w, "invalid userIdToAdd", http.StatusBadRequest)
		return
	}

	if err := h.convos.AddUser(r.Context(), convo.ID, req.UserIDToAdd); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithSuccess(w, http.StatusCreated, "user added to conversation")
}

// RemoveMember handles DELETE /api/conversations/{conversationId}/users/{userId}.
// A member may only remove themselves (leave the conversation).
func (h *ConversationHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	convo, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	requesterID, _ := UserIDFromContext(r.Context())
	if userID != requesterID {
		respondWithError(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := h.convos.RemoveUser(r.Context(), convo.ID, userID); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, "user removed from conversation")
}

// Messages handles GET /api/conversations/{conversationId}/messages;
// members only, insertion order.
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	convo, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	msgs, err := h.convos.GetMessages(r.Context(), convo.ID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, msgs)
}

// CreateMessage handles POST /api/conversations/{conversationId}/messages.
// This is the request/response twin of the socket newMessage event; it
// persists without fanning out to live subscribers.
func (h *ConversationHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	convo, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	requesterID, _ := UserIDFromContext(r.Context())

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "bad request body", http.StatusBadRequest)
		return
	}

	msg, err := h.convos.CreateMessage(r.Context(), convo.ID, requesterID, req.Text)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithSuccess(w, http.StatusCreated, msg)
}

// requireMember resolves {conversationId}, confirms the conversation exists
// and that the requester is a member.
func (h *ConversationHandler) requireMember(w http.ResponseWriter, r *http.Request) (*models.Conversation, bool) {
	conversationID, ok := pathID(w, r, "conversationId")
	if !ok {
		return nil, false
	}

	convo, err := h.convos.FindByID(r.Context(), conversationID)
	if err != nil {
		respondWithAppError(w, err)
		return nil, false
	}
	if convo == nil {
		respondWithError(w, "conversation does not exist", http.StatusNotFound)
		return nil, false
	}

	requesterID, okCtx := UserIDFromContext(r.Context())
	if !okCtx {
		respondWithError(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	member, err := h.convos.HasUser(r.Context(), convo.ID, requesterID)
	if err != nil {
		respondWithAppError(w, err)
		return nil, false
	}
	if !member {
		respondWithError(w, "user is not in conversation", http.StatusForbidden)
		return nil, false
	}

	return convo, true
}
