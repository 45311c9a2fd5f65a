package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"doko3000/internal/config"
	"doko3000/internal/database"
	"doko3000/internal/protocol"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRejected = errors.New("rejected")

type fakeBackend struct {
	mu       sync.Mutex
	received []protocol.Message
}

func (f *fakeBackend) Dispatch(ctx context.Context, playerID string, msg protocol.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, msg)
	if msg.Type == "bad" {
		return errRejected
	}
	return nil
}

func (f *fakeBackend) TableOf(playerID string) string {
	if playerID == "p1" {
		return "t1"
	}
	return ""
}

func (f *fakeBackend) Authenticate(name, password string) (protocol.PlayerInfo, bool) {
	if name == "P1" && password == "pw" {
		return protocol.PlayerInfo{ID: "p1", Name: "P1"}, true
	}
	return protocol.PlayerInfo{}, false
}

func (f *fakeBackend) Players() []protocol.PlayerInfo {
	return []protocol.PlayerInfo{{ID: "p1", Name: "P1"}}
}

func (f *fakeBackend) Tables() []protocol.TableInfo {
	return []protocol.TableInfo{{ID: "t1", Name: "Table 1", Players: []string{"p1"}, Order: []string{"p1"}}}
}

func (f *fakeBackend) Results(ctx context.Context, playerName string) ([]database.ResultRecord, error) {
	return []database.ResultRecord{{ID: "r1", Players: []string{playerName}}}, nil
}

type testServer struct {
	*httptest.Server
	hub     *Hub
	backend *fakeBackend
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	backend := &fakeBackend{}
	hub := NewHub(backend)
	go hub.Run(ctx)

	cfg := config.Config{JWTSecret: "test-secret", RateLimit: 1000, AllowedOrigins: []string{"*"}}
	h := NewHandler(ctx, backend, hub, cfg)
	srv := httptest.NewServer(h.Router(cfg))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, hub: hub, backend: backend}
}

func (s *testServer) login(t *testing.T, name, password string) *http.Response {
	t.Helper()
	body, err := json.Marshal(loginRequest{Name: name, Password: password})
	require.NoError(t, err)
	resp, err := http.Post(s.URL+"/v1/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) token(t *testing.T) string {
	t.Helper()
	resp := s.login(t, "P1", "pw")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out loginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, err := http.Get(s.URL + "/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	resp := s.login(t, "P1", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.login(t, "P1", "pw")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "jwt" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
}

func TestTablesNeedToken(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.Get(s.URL + "/v1/tables")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, s.URL+"/v1/tables", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.token(t))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tables []protocol.TableInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tables))
	require.Len(t, tables, 1)
	assert.Equal(t, "Table 1", tables[0].Name)
}

func TestResultsByPlayer(t *testing.T) {
	s := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, s.URL+"/v1/results?player=P1", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: s.token(t)})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var results []database.ResultRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	require.Len(t, results, 1)
	assert.Equal(t, []string{"P1"}, results[0].Players)
}

func readFrame(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg protocol.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocket(t *testing.T) {
	s := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/v1/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	header.Set("Cookie", "jwt="+s.token(t))
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	// once the pong arrives the client is registered
	require.NoError(t, conn.WriteJSON(protocol.Message{Type: "ping"}))
	assert.Equal(t, "pong", readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(protocol.Message{Type: "bad"}))
	msg := readFrame(t, conn)
	assert.Equal(t, protocol.ErrorEvent, msg.Type)
	assert.Contains(t, string(msg.Payload), errRejected.Error())

	// events for other rooms are not delivered
	require.NoError(t, s.hub.Publish(protocol.ToRoom("t2", protocol.NextTrick, protocol.TablePayload{TableID: "t2"})))
	require.NoError(t, s.hub.Publish(protocol.ToRoom("t1", protocol.NextTrick, protocol.TablePayload{TableID: "t1"})))
	msg = readFrame(t, conn)
	assert.Equal(t, protocol.NextTrick, msg.Type)
	assert.Contains(t, string(msg.Payload), `"t1"`)

	require.NoError(t, s.hub.Publish(protocol.ToSession("p1", protocol.YourCards, nil)))
	assert.Equal(t, protocol.YourCards, readFrame(t, conn).Type)
	require.NoError(t, s.hub.Publish(protocol.Broadcast(protocol.IndexListChanged, nil)))
	assert.Equal(t, protocol.IndexListChanged, readFrame(t, conn).Type)
}
