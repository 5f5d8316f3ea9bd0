package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger-backend/config"
	"messenger-backend/models"
	"messenger-backend/repository"
	"messenger-backend/services"
	"messenger-backend/utils"
	"messenger-backend/ws"
)

var handlerCipher = sync.OnceValues(func() (*utils.Cipher, error) {
	return utils.NewCipher("test-secret", "0123456789ab")
})

type testAPI struct {
	srv    *httptest.Server
	users  *services.UserService
	convos *services.ConversationService
	auth   *services.AuthService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := repository.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cipher, err := handlerCipher()
	require.NoError(t, err)

	userRepo := repository.NewSQLUserRepo(db)
	convoRepo := repository.NewSQLConversationRepo(db)
	membershipRepo := repository.NewSQLMembershipRepo(db)
	messageRepo := repository.NewSQLMessageRepo(db)

	users := services.NewUserService(userRepo, membershipRepo, cipher)
	convos := services.NewConversationService(convoRepo, membershipRepo, messageRepo, userRepo, cipher, 2000)
	auth := services.NewAuthService(users, &config.Config{JWTSecret: "api-secret", JWTExpiryHours: 1})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := ws.NewHub(log)
	socket := ws.NewSocketServer(hub, auth, users, convos, log)

	mux := NewRouter(NewUserHandler(users, convos, auth), NewConversationHandler(convos), socket, auth, users)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testAPI{srv: srv, users: users, convos: convos, auth: auth}
}

func (a *testAPI) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeData(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&wrapper))
	require.NoError(t, json.Unmarshal(wrapper.Data, out))
}

func (a *testAPI) registeredUser(t *testing.T, name string) (*models.User, string) {
	t.Helper()
	user, err := a.users.Create(context.Background(), services.NewUser{
		UserName:  name,
		FirstName: "First",
		LastName:  "Last",
		Email:     name + "@example.com",
		Password:  "pw-" + name,
	})
	require.NoError(t, err)
	token, err := a.auth.CreateToken(user.ID, user.UserName)
	require.NoError(t, err)
	return user, token
}

func TestCreateUserEndpoint(t *testing.T) {
	a := newTestAPI(t)

	resp := a.request(t, http.MethodPost, "/api/users", "", services.NewUser{
		UserName:  "alice",
		FirstName: "Alice",
		LastName:  "Anderson",
		Email:     "alice@example.com",
		Password:  "hunter2",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got models.TruncatedUser
	decodeData(t, resp, &got)
	assert.Equal(t, "alice", got.UserName)
	assert.Greater(t, got.ID, 0)

	// password material never appears in the response
	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
}

func TestCreateUserRejectsMissingFieldsAndDuplicates(t *testing.T) {
	a := newTestAPI(t)

	resp := a.request(t, http.MethodPost, "/api/users", "", map[string]string{"userName": "alice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	a.registeredUser(t, "alice")
	resp = a.request(t, http.MethodPost, "/api/users", "", services.NewUser{
		UserName:  "alice",
		FirstName: "A",
		LastName:  "B",
		Email:     "c@example.com",
		Password:  "pw",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginEndpoint(t *testing.T) {
	a := newTestAPI(t)
	user, _ := a.registeredUser(t, "alice")

	basic := func(creds string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, a.srv.URL+"/api/users/login", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(creds)))
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := basic("alice:pw-alice")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got struct {
		JSONWebToken string `json:"jsonWebToken"`
		UserID       int    `json:"userId"`
	}
	decodeData(t, resp, &got)
	assert.Equal(t, user.ID, got.UserID)

	userID, _, err := a.auth.VerifyToken(got.JSONWebToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	assert.Equal(t, http.StatusBadRequest, basic("alice:wrong").StatusCode)
	assert.Equal(t, http.StatusBadRequest, basic("nobody:pw").StatusCode)
}

func TestAuthMiddleware(t *testing.T) {
	a := newTestAPI(t)
	user, token := a.registeredUser(t, "alice")

	resp := a.request(t, http.MethodGet, "/api/users/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.request(t, http.MethodGet, "/api/users/1", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// a token for a deleted user stops working
	require.NoError(t, a.users.Delete(context.Background(), user.ID))
	resp = a.request(t, http.MethodGet, "/api/users/1", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetAndUpdateUserEndpoints(t *testing.T) {
	a := newTestAPI(t)
	alice, aliceToken := a.registeredUser(t, "alice")
	bob, bobToken := a.registeredUser(t, "bob")

	resp := a.request(t, http.MethodGet, "/api/users/"+strconv.Itoa(bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.TruncatedUser
	decodeData(t, resp, &got)
	assert.Equal(t, "bob", got.UserName)

	resp = a.request(t, http.MethodPut, "/api/users/"+strconv.Itoa(alice.ID), aliceToken,
		services.UpdateUser{FirstName: "Alicia"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, resp, &got)
	assert.Equal(t, "Alicia", got.FirstName)

	// users cannot update each other
	resp = a.request(t, http.MethodPut, "/api/users/"+strconv.Itoa(alice.ID), bobToken,
		services.UpdateUser{FirstName: "Mallory"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpdatePasswordAndDeleteEndpoints(t *testing.T) {
	a := newTestAPI(t)
	alice, token := a.registeredUser(t, "alice")

	resp := a.request(t, http.MethodPut, "/api/users/"+strconv.Itoa(alice.ID)+"/password", token,
		map[string]string{"password": "new-password"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	loaded, err := a.users.FindByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.True(t, a.users.ValidatePassword(loaded, "new-password"))

	resp = a.request(t, http.MethodDelete, "/api/users/"+strconv.Itoa(alice.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	gone, err := a.users.FindByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestConversationEndpoints(t *testing.T) {
	a := newTestAPI(t)
	alice, aliceToken := a.registeredUser(t, "alice")
	bob, bobToken := a.registeredUser(t, "bob")
	_, daveToken := a.registeredUser(t, "dave")

	resp := a.request(t, http.MethodPost, "/api/conversations", aliceToken,
		map[string]string{"name": "general"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var convo models.Conversation
	decodeData(t, resp, &convo)
	assert.Equal(t, "general", convo.Name)

	base := "/api/conversations/" + strconv.Itoa(convo.ID)

	// non-members cannot see the conversation
	resp = a.request(t, http.MethodGet, base, daveToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// members can add users; duplicates are rejected
	resp = a.request(t, http.MethodPost, base+"/users", aliceToken,
		map[string]int{"userIdToAdd": bob.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = a.request(t, http.MethodPost, base+"/users", aliceToken,
		map[string]int{"userIdToAdd": bob.ID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// the member list is visible to members
	resp = a.request(t, http.MethodGet, base, bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail struct {
		ID    int                    `json:"id"`
		Name  string                 `json:"name"`
		Users []models.TruncatedUser `json:"users"`
	}
	decodeData(t, resp, &detail)
	assert.Len(t, detail.Users, 2)

	// messages over HTTP, newest last
	resp = a.request(t, http.MethodPost, base+"/messages", aliceToken,
		map[string]string{"text": "hello"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = a.request(t, http.MethodGet, base+"/messages", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var msgs []models.Message
	decodeData(t, resp, &msgs)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, alice.ID, msgs[0].UserID)

	// members may leave; they may not remove others
	resp = a.request(t, http.MethodDelete, base+"/users/"+strconv.Itoa(alice.ID), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = a.request(t, http.MethodDelete, base+"/users/"+strconv.Itoa(bob.ID), bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.request(t, http.MethodGet, base, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// missing conversation
	resp = a.request(t, http.MethodGet, "/api/conversations/9999", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserConversationsEndpoint(t *testing.T) {
	a := newTestAPI(t)
	alice, token := a.registeredUser(t, "alice")

	for _, name := range []string{"one", "two"} {
		resp := a.request(t, http.MethodPost, "/api/conversations", token,
			map[string]string{"name": name})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := a.request(t, http.MethodGet, "/api/users/"+strconv.Itoa(alice.ID)+"/conversations", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var convos []models.Conversation
	decodeData(t, resp, &convos)
	require.Len(t, convos, 2)
	assert.Equal(t, "one", convos[0].Name)
	assert.Equal(t, "two", convos[1].Name)
}
