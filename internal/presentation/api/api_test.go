package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/btmxh/gym-tsfr/internal/application/usecases/checkin"
	"github.com/btmxh/gym-tsfr/internal/application/usecases/message"
	"github.com/btmxh/gym-tsfr/internal/application/usecases/room"
	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/domain/mocks"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/auth"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/configs"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/events"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/metrics"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/ratelimiter"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/realtime"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/repository"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/sign"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/ws"
	eventsHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/events"
	healthHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/health"
	messagesHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/messages"
	realtimeHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/realtime"
	roomHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/rooms"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/mock/gomock"
)

type testServer struct {
	t        *testing.T
	mr       *miniredis.Miniredis
	checkIns *mocks.MockCheckInRepository
	handler  http.Handler
}

func newTestServer(t *testing.T, limiter ratelimiter.Limiter) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &configs.Config{
		Environment: "development",
		HTTP:        configs.HTTPConfig{AllowedOrigins: []string{"https://gym.example"}},
		Tracing:     configs.TracingConfig{ServiceName: "test"},
	}

	logger := logging.NewNop()
	m := metrics.New()
	tracer := noop.NewTracerProvider().Tracer("test")
	publisher := events.NoopPublisher{}

	rooms := repository.NewRoomRepository(client, tracer, 10)
	messages := repository.NewMessageRepository(client, tracer)
	bus := realtime.NewRedisBus(client, 64, logger)

	checkIns := mocks.NewMockCheckInRepository(gomock.NewController(t))
	tokens := sign.NewTokens(sign.NewHMACSign([]byte("secret")))

	roomUseCase := room.NewRoomUseCase(rooms, bus, publisher, m, logger, 10*time.Minute)
	messageUseCase := message.NewMessageUseCase(rooms, messages, bus, publisher, m, logger)
	checkInUseCase := checkin.NewCheckInUseCase(tokens, checkIns, m, logger, checkin.Options{
		Window:  time.Minute,
		BaseURL: "https://gym.example/qr",
	})

	if limiter == nil {
		limiter = ratelimiter.New(ratelimiter.Options{MaxRatePerSecond: 1000, MaxBurst: 1000})
	}

	app := NewApplication(
		cfg,
		roomUseCase,
		auth.NewHeaderResolver(),
		roomHandler.NewHandler(roomUseCase, logger),
		messagesHandler.NewHandler(messageUseCase, logger),
		realtimeHandler.NewHandler(bus, ws.NewUpgrader(cfg.HTTP.AllowedOrigins), logger),
		eventsHandler.NewHandler(checkInUseCase, logger),
		healthHandler.NewHandler(map[string]healthHandler.Check{
			"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}),
		logger,
		limiter,
		m,
	)

	return &testServer{t: t, mr: mr, checkIns: checkIns, handler: app.Mount()}
}

func (s *testServer) do(method, target, body string, token string, headers map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()

	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}

	if token != "" {
		r.AddCookie(&http.Cookie{Name: domain.MemberCookie, Value: token})
	}
	for k, v := range headers {
		r.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	return rec
}

func (s *testServer) createRoom() string {
	s.t.Helper()

	rec := s.do(http.MethodPost, "/api/rooms/create", "", "", nil)
	require.Equal(s.t, http.StatusOK, rec.Code)

	var resp struct {
		RoomID string `json:"roomId"`
	}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(s.t, resp.RoomID)
	return resp.RoomID
}

// join walks through the admission proxy and returns the participant token.
func (s *testServer) join(roomID string) string {
	s.t.Helper()

	rec := s.do(http.MethodGet, "/room/"+roomID, "", "", nil)
	require.Equal(s.t, http.StatusOK, rec.Code)

	cookie := memberCookie(rec)
	require.NotNil(s.t, cookie)
	return cookie.Value
}

func memberCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == domain.MemberCookie {
			return c
		}
	}
	return nil
}

func TestAdmissionProxy(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, nil)
	roomID := s.createRoom()

	rec := s.do(http.MethodGet, "/room/"+roomID, "", "", nil)
	req.Equal(http.StatusOK, rec.Code)

	cookie := memberCookie(rec)
	req.NotNil(cookie)
	req.NotEmpty(cookie.Value)
	req.True(cookie.HttpOnly)
	req.Equal(http.SameSiteStrictMode, cookie.SameSite)
	req.Equal("/", cookie.Path)
	req.False(cookie.Secure)
	req.Zero(cookie.MaxAge)

	var page struct {
		RoomID       string `json:"roomId"`
		TTL          int64  `json:"ttl"`
		Participants int    `json:"participants"`
	}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &page))
	req.Equal(roomID, page.RoomID)
	req.Equal(1, page.Participants)
	req.InDelta(600, page.TTL, 1)

	// a returning participant is let through without a new cookie
	again := s.do(http.MethodGet, "/room/"+roomID, "", cookie.Value, nil)
	req.Equal(http.StatusOK, again.Code)
	req.Nil(memberCookie(again))

	tb := s.join(roomID)
	req.NotEqual(cookie.Value, tb)

	third := s.do(http.MethodGet, "/room/"+roomID, "", "", nil)
	req.Equal(http.StatusFound, third.Code)
	req.Equal("/?error=room-full", third.Header().Get("Location"))
	req.Nil(memberCookie(third))

	// both members can still come back
	req.Equal(http.StatusOK, s.do(http.MethodGet, "/room/"+roomID, "", tb, nil).Code)
}

func TestAdmissionProxyRedirects(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/room/does-not-exist", "", "", nil)
	req.Equal(http.StatusFound, rec.Code)
	req.Equal("/?error=room-not-found", rec.Header().Get("Location"))

	for _, path := range []string{"/room", "/room/", "/room/a/b"} {
		rec := s.do(http.MethodGet, path, "", "", nil)
		req.Equal(http.StatusFound, rec.Code, path)
		req.Equal("/", rec.Header().Get("Location"), path)
	}
}

func TestAdmissionProxyStoreUnavailable(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, nil)
	s.mr.Close()

	rec := s.do(http.MethodGet, "/room/whatever", "", "", nil)
	req.Equal(http.StatusServiceUnavailable, rec.Code)
	req.Equal("application/json", rec.Header().Get("Content-Type"))
	req.NotContains(rec.Body.String(), "connection refused")
}

func TestMessages(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, nil)
	roomID := s.createRoom()
	ta := s.join(roomID)
	tb := s.join(roomID)

	rec := s.do(http.MethodPost, "/api/messages?roomId="+roomID, `{"sender":"alice","text":"hi"}`, ta, nil)
	req.Equal(http.StatusCreated, rec.Code)

	type listResponse struct {
		Messages []map[string]any `json:"messages"`
	}

	rec = s.do(http.MethodGet, "/api/messages?roomId="+roomID, "", ta, nil)
	req.Equal(http.StatusOK, rec.Code)
	var asA listResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &asA))
	req.Len(asA.Messages, 1)
	req.Equal("alice", asA.Messages[0]["sender"])
	req.Equal(true, asA.Messages[0]["own"])

	rec = s.do(http.MethodGet, "/api/messages?roomId="+roomID, "", tb, nil)
	req.Equal(http.StatusOK, rec.Code)
	req.NotContains(rec.Body.String(), ta)
	var asB listResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &asB))
	req.Len(asB.Messages, 1)
	req.NotContains(asB.Messages[0], "own")
	req.NotContains(asB.Messages[0], "token")
}

func TestMessagesValidation(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, nil)
	roomID := s.createRoom()
	ta := s.join(roomID)

	long := strings.Repeat("x", domain.MaxTextLength+1)
	rec := s.do(http.MethodPost, "/api/messages?roomId="+roomID, fmt.Sprintf(`{"sender":"a","text":%q}`, long), ta, nil)
	req.Equal(http.StatusBadRequest, rec.Code)
	req.Contains(rec.Body.String(), "text")

	rec = s.do(http.MethodPost, "/api/messages?roomId="+roomID, `{"sender":`, ta, nil)
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestRoomMemberGate(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, nil)
	roomID := s.createRoom()
	s.join(roomID)

	req.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/messages?roomId="+roomID, "", "", nil).Code)
	req.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/messages", "", "token", nil).Code)
	req.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/messages?roomId="+roomID, "", "stranger", nil).Code)
	req.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/rooms/ttl?roomId=gone", "", "stranger", nil).Code)
}

func TestTTLAndDestroy(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, nil)
	roomID := s.createRoom()
	ta := s.join(roomID)

	s.mr.FastForward(100 * time.Second)

	rec := s.do(http.MethodGet, "/api/rooms/ttl?roomId="+roomID, "", ta, nil)
	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`{"ttl":500}`, rec.Body.String())

	rec = s.do(http.MethodDelete, "/api/rooms?roomId="+roomID, "", ta, nil)
	req.Equal(http.StatusNoContent, rec.Code)

	req.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/rooms/ttl?roomId="+roomID, "", ta, nil).Code)
	req.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/messages?roomId="+roomID, "", ta, nil).Code)

	rec = s.do(http.MethodGet, "/room/"+roomID, "", ta, nil)
	req.Equal("/?error=room-not-found", rec.Header().Get("Location"))
}

func TestRealtime(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, nil)
	roomID := s.createRoom()
	ta := s.join(roomID)

	srv := httptest.NewServer(s.handler)
	t.Cleanup(srv.Close)

	// posted before subscribing; comes back through the replay stream
	rec := s.do(http.MethodPost, "/api/messages?roomId="+roomID, `{"sender":"alice","text":"early"}`, ta, nil)
	req.Equal(http.StatusCreated, rec.Code)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/realtime?roomId=" + url.QueryEscape(roomID)
	header := http.Header{}
	header.Set("Cookie", domain.MemberCookie+"="+ta)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	req.NoError(err)
	req.Equal(http.StatusSwitchingProtocols, resp.StatusCode)
	defer conn.Close()

	read := func() realtime.Event {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var event realtime.Event
		req.NoError(conn.ReadJSON(&event))
		return event
	}

	first := read()
	req.Equal(domain.EventChatMessage, first.Event)
	req.Contains(string(first.Data), "early")
	req.NotContains(string(first.Data), ta)

	rec = s.do(http.MethodPost, "/api/messages?roomId="+roomID, `{"sender":"alice","text":"live"}`, ta, nil)
	req.Equal(http.StatusCreated, rec.Code)

	live := read()
	req.Equal(domain.EventChatMessage, live.Event)
	req.Contains(string(live.Data), "live")

	rec = s.do(http.MethodDelete, "/api/rooms?roomId="+roomID, "", ta, nil)
	req.Equal(http.StatusNoContent, rec.Code)

	destroyed := read()
	req.Equal(domain.EventChatDestroy, destroyed.Event)
	req.JSONEq(`{"isDestroyed":true}`, string(destroyed.Data))
}

func TestRealtimeRequiresMembership(t *testing.T) {
	s := newTestServer(t, nil)
	roomID := s.createRoom()

	rec := s.do(http.MethodGet, "/api/realtime?roomId="+roomID, "", "stranger", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func session(userID, role string) map[string]string {
	return map[string]string{
		auth.HeaderUserID:   userID,
		auth.HeaderUserName: "Ann",
		auth.HeaderUserRole: role,
	}
}

func TestQRCodeFlow(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, nil)

	req.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/events/qrcode", "", "", nil).Code)

	rec := s.do(http.MethodGet, "/api/events/qrcode", "", "", session("u1", "user"))
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("no-store", rec.Header().Get("Cache-Control"))

	var qr struct {
		URL string `json:"url"`
	}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &qr))
	req.True(strings.HasPrefix(qr.URL, "https://gym.example/qr?token="))

	body := fmt.Sprintf(`{"mode":"check-in","url":%q}`, qr.URL)

	// members cannot record check-ins
	rec = s.do(http.MethodPost, "/api/events/new", body, "", session("u1", "user"))
	req.Equal(http.StatusForbidden, rec.Code)

	s.checkIns.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c *domain.CheckIn) (string, error) {
			req.Equal("u1", c.UserID)
			req.Equal(domain.CheckInModeIn, c.Mode)
			return "65f000000000000000000001", nil
		})

	rec = s.do(http.MethodPost, "/api/events/new", body, "", session("staff-1", "staff"))
	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`{"docId":"65f000000000000000000001"}`, rec.Body.String())
}

func TestQRCodeRejectsForgedTokens(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, nil)

	forged := sign.NewTokens(sign.NewHMACSign([]byte("not-the-secret")))
	forgedURL, err := forged.IssueURL(context.Background(), sign.Subject{UserID: "u1"}, time.Minute, "https://gym.example/qr")
	req.NoError(err)

	cases := []string{
		forgedURL,
		"https://gym.example/qr?token=garbage",
		"https://gym.example/qr",
	}
	for _, u := range cases {
		body := fmt.Sprintf(`{"mode":"check-out","url":%q}`, u)
		rec := s.do(http.MethodPost, "/api/events/new", body, "", session("admin-1", "admin"))
		req.Equal(http.StatusBadRequest, rec.Code, u)
		req.Contains(rec.Body.String(), "invalid or expired QR code", u)
	}

	rec := s.do(http.MethodPost, "/api/events/new", `{"mode":"teleport","url":"x"}`, "", session("admin-1", "admin"))
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestQRCodePNG(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/api/events/qrcode.png", "", "", session("u1", "user"))
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("image/png", rec.Header().Get("Content-Type"))
	req.True(strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestMyEvents(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, nil)

	req.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/events/mine", "", "", session("g", "guest")).Code)

	s.checkIns.EXPECT().ListByUser(gomock.Any(), "u1", 50).Return([]domain.CheckIn{
		{ID: "a", UserID: "u1", Mode: domain.CheckInModeIn},
	}, nil)

	rec := s.do(http.MethodGet, "/api/events/mine", "", "", session("u1", "user"))
	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Body.String(), `"mode":"check-in"`)
}

func TestRateLimit(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, ratelimiter.New(ratelimiter.Options{MaxRatePerSecond: 1, MaxBurst: 2}))

	req.Equal(http.StatusOK, s.do(http.MethodGet, "/api/live", "", "", nil).Code)
	req.Equal(http.StatusOK, s.do(http.MethodGet, "/api/live", "", "", nil).Code)

	rec := s.do(http.MethodGet, "/api/live", "", "", nil)
	req.Equal(http.StatusTooManyRequests, rec.Code)
	req.Equal("1", rec.Header().Get("Retry-After"))
}

func TestCors(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, nil)

	rec := s.do(http.MethodOptions, "/api/rooms/create", "", "", map[string]string{"Origin": "https://gym.example"})
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("https://gym.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = s.do(http.MethodOptions, "/api/rooms/create", "", "", map[string]string{"Origin": "https://evil.example"})
	req.Empty(rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/api/health", "", "", nil)
	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Body.String(), `"redis":"ok"`)

	s.createRoom()

	rec = s.do(http.MethodGet, "/metrics", "", "", nil)
	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Body.String(), `gym_rooms_created_total 1`)
	req.Contains(rec.Body.String(), `route="/api/rooms/create"`)

	s.mr.Close()
	rec = s.do(http.MethodGet, "/api/health", "", "", nil)
	req.Equal(http.StatusServiceUnavailable, rec.Code)
}
