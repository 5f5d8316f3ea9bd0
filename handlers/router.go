package handlers

import (
	"net/http"
	"time"

	"messenger-backend/services"
	"messenger-backend/ws"
)

// NewRouter builds the routing table. Registration and login are open;
// everything else requires a bearer token. The websocket endpoint does its
// own authentication from the token query parameter.
func NewRouter(
	userH *UserHandler,
	convoH *ConversationHandler,
	socket *ws.SocketServer,
	auth *services.AuthService,
	users *services.UserService,
) *http.ServeMux {
	mux := http.NewServeMux()

	withAuth := func(next http.HandlerFunc) http.HandlerFunc {
		return WithAuth(auth, users, next)
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
	})

	mux.HandleFunc("POST /api/users", userH.Create)
	mux.HandleFunc("POST /api/users/login", userH.Login)
	mux.HandleFunc("GET /api/users/{userId}", withAuth(userH.Get))
	mux.HandleFunc("PUT /api/users/{userId}", withAuth(userH.Update))
	mux.HandleFunc("PUT /api/users/{userId}/password", withAuth(userH.UpdatePassword))
	mux.HandleFunc("DELETE /api/users/{userId}", withAuth(userH.Delete))
	mux.HandleFunc("GET /api/users/{userId}/conversations", withAuth(userH.Conversations))

	mux.HandleFunc("POST /api/conversations", withAuth(convoH.Create))
	mux.HandleFunc("GET /api/conversations/{conversationId}", withAuth(convoH.Get))
	mux.HandleFunc("PUT /api/conversations/{conversationId}", withAuth(convoH.Update))
	mux.HandleFunc("POST /api/conversations/{conversationId}/users", withAuth(convoH.AddMember))
	mux.HandleFunc("DELETE /api/conversations/{conversationId}/users/{userId}", withAuth(convoH.RemoveMember))
	mux.HandleFunc("GET /api/conversations/{conversationId}/messages", withAuth(convoH.Messages))
	mux.HandleFunc("POST /api/conversations/{conversationId}/messages", withAuth(convoH.CreateMessage))

	mux.HandleFunc("/ws", socket.ServeWS)

	return mux
}
