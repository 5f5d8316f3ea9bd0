package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"messenger-backend/services"
)

// SocketServer owns the per-connection authentication state machine and the
// event engine behind it. A connection moves Connecting -> Unauthenticated
// -> Authenticated -> Disconnected; a failed handshake is closed without a
// single event being emitted, and membership is re-checked from the domain
// model on every mutating event because membership, unlike identity, can
// change while the connection lives.
type SocketServer struct {
	hub    *Hub
	auth   *services.AuthService
	users  *services.UserService
	convos *services.ConversationService
	log    *slog.Logger

	upgrader websocket.Upgrader
}

func NewSocketServer(hub *Hub, auth *services.AuthService, users *services.UserService, convos *services.ConversationService, log *slog.Logger) *SocketServer {
	return &SocketServer{
		hub:    hub,
		auth:   auth,
		users:  users,
		convos: convos,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the connection and runs its session to completion. The
// credential travels out-of-band as the token query parameter: it gates
// whether any events are processed at all, so it cannot be an in-band event.
func (s *SocketServer) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	ctx := r.Context()
	client := newClient(s.hub, conn, s.log)
	go client.writePump()

	if !s.authenticate(ctx, client, r.URL.Query().Get("token")) {
		// No event reaches an unauthenticated peer; the transport is
		// simply closed.
		client.closeSend()
		conn.Close()
		return
	}

	client.readPump(func(c *Client, raw []byte) {
		s.handleEvent(ctx, c, raw)
	})
}

// authenticate runs the Unauthenticated -> Authenticated transition. On
// success it tags the connection with the verified identity, acknowledges,
// and auto-subscribes the connection to each of the user's conversations.
// It runs exactly once per connection, before the read loop starts.
func (s *SocketServer) authenticate(ctx context.Context, c *Client, token string) bool {
	if token == "" {
		s.log.Debug("connection without token rejected")
		return false
	}

	userID, userName, err := s.auth.VerifyToken(token)
	if err != nil {
		s.log.Debug("connection with invalid token rejected", "err", err)
		return false
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		s.log.Debug("token for unknown user rejected", "userId", userID)
		return false
	}

	// Load the memberships before acknowledging: auto-subscription is part
	// of the transition, so a persistence failure here closes the
	// connection instead of leaving an authenticated session subscribed to
	// nothing. The client can reconnect.
	convos, err := s.convos.FindByUserID(ctx, userID)
	if err != nil {
		s.log.Error("loading conversations for auto-subscription", "userId", userID, "err", err)
		return false
	}

	c.userID = userID
	c.userName = userName
	c.Emit(EventAuthenticated, nil)

	for _, convo := range convos {
		s.hub.Join(convo.ID, c)
		c.Emit(EventJoinedRoom, roomOut{ConversationID: convo.ID})
	}

	s.log.Info("client authenticated", "userId", userID, "rooms", len(convos))
	return true
}

// handleEvent dispatches one inbound frame. Failures are logged and the
// event dropped; they never reach other members and never end the session.
func (s *SocketServer) handleEvent(ctx context.Context, c *Client, raw []byte) {
	ev, err := parseInbound(raw)
	if err != nil {
		s.log.Warn("rejecting inbound event", "userId", c.userID, "err", err)
		return
	}

	switch ev.kind {
	case kindNewMessage:
		s.handleNewMessage(ctx, c, ev.newMessage)
	case kindJoinRoom:
		s.handleJoinRoom(ctx, c, ev.room)
	case kindLeaveRoom:
		s.handleLeaveRoom(c, ev.room)
	}
}

func (s *SocketServer) handleNewMessage(ctx context.Context, c *Client, p newMessageIn) {
	convo, err := s.convos.FindByID(ctx, p.ConversationID)
	if err != nil {
		s.log.Error("loading conversation", "conversationId", p.ConversationID, "err", err)
		return
	}
	if convo == nil {
		s.log.Warn("message to missing conversation", "userId", c.userID, "conversationId", p.ConversationID)
		return
	}

	member, err := s.convos.HasUser(ctx, convo.ID, c.userID)
	if err != nil {
		s.log.Error("checking membership", "conversationId", convo.ID, "err", err)
		return
	}
	if !member {
		s.log.Warn("message from non-member", "userId", c.userID, "conversationId", convo.ID)
		return
	}

	// Persistence must succeed before any fan-out.
	msg, err := s.convos.CreateMessage(ctx, convo.ID, c.userID, p.Text)
	if err != nil {
		s.log.Error("persisting message", "conversationId", convo.ID, "err", err)
		return
	}

	frame, err := marshalEvent(EventNewMessage, newMessageOut{
		ConversationID: msg.ConversationID,
		UserID:         msg.UserID,
		Text:           msg.Text,
	})
	if err != nil {
		s.log.Error("marshaling broadcast", "err", err)
		return
	}
	s.hub.Broadcast(convo.ID, c, frame)
}

// handleJoinRoom subscribes an already-authorized connection to live
// updates; it does not grant membership.
func (s *SocketServer) handleJoinRoom(ctx context.Context, c *Client, p roomIn) {
	convo, err := s.convos.FindByID(ctx, p.ConversationID)
	if err != nil {
		s.log.Error("loading conversation", "conversationId", p.ConversationID, "err", err)
		return
	}
	if convo == nil {
		s.log.Warn("join for missing conversation", "userId", c.userID, "conversationId", p.ConversationID)
		return
	}

	member, err := s.convos.HasUser(ctx, convo.ID, c.userID)
	if err != nil {
		s.log.Error("checking membership", "conversationId", convo.ID, "err", err)
		return
	}
	if !member {
		s.log.Warn("join from non-member", "userId", c.userID, "conversationId", convo.ID)
		return
	}

	s.hub.Join(convo.ID, c)
	c.Emit(EventJoinedRoom, roomOut{ConversationID: convo.ID})
}

// handleLeaveRoom needs no membership check: a connection may always stop
// listening to a room.
func (s *SocketServer) handleLeaveRoom(c *Client, p roomIn) {
	s.hub.Leave(p.ConversationID, c)
	c.Emit(EventLeftRoom, roomOut{ConversationID: p.ConversationID})
}
