package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"go-live-chatroom/internal/config"
	"go-live-chatroom/internal/event"
	"go-live-chatroom/internal/middleware"
	"go-live-chatroom/internal/model"
	"go-live-chatroom/internal/presence"
	"go-live-chatroom/internal/repository"
	"go-live-chatroom/internal/service"
	"go-live-chatroom/internal/storage"
	"go-live-chatroom/pkg/apierror"
)

var testTokens = config.TokenConfig{
	AccessSecret:  "access-secret",
	RefreshSecret: "refresh-secret",
	AccessTTL:     150 * time.Second,
	RefreshTTL:    7 * 24 * time.Hour,
}

type fixture struct {
	auth     *AuthHandler
	chatroom *ChatroomHandler
	sessions *service.SessionManager
	dir      repository.Directory
	bus      *event.InMemoryBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := repository.NewMemoryDirectory()
	bus := event.NewBus(8)
	t.Cleanup(bus.Close)
	tracker := presence.NewTracker(bus)

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	images := service.NewImageService(store, "http://localhost:8080", 1<<20)

	sessions := service.NewSessionManager(dir.Users, testTokens)
	users := service.NewUserService(dir, images)

	return &fixture{
		auth:     NewAuthHandler(service.NewAuthService(dir.Users, sessions), true),
		chatroom: NewChatroomHandler(service.NewChatroomService(dir, images, tracker, bus), service.NewLiveChatroomService(dir, tracker), users, 1<<20),
		sessions: sessions,
		dir:      dir,
		bus:      bus,
	}
}

func jsonRequest(t *testing.T, method string, target string, body any) *http.Request {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) model.APIResponse {
	t.Helper()

	var body model.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	t.Run("api error keeps its kind", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeError(rr, apierror.Conflict("user already exists", "ada@example.com"))

		require.Equal(t, http.StatusConflict, rr.Code)
		body := decode(t, rr)
		require.False(t, body.Success)
		require.Equal(t, apierror.CodeConflict, body.Error.Code)
		require.Equal(t, "ada@example.com", body.Error.Details)
	})

	t.Run("wrapped api error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeError(rr, errors.Join(errors.New("lookup"), apierror.NotFound("chatroom not found", "9")))
		require.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("unexpected error is internal", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeError(rr, errors.New("connection reset by peer"))

		require.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decode(t, rr)
		require.Equal(t, apierror.CodeInternal, body.Error.Code)
		require.NotContains(t, rr.Body.String(), "connection reset")
	})
}

func TestPathID(t *testing.T) {
	t.Parallel()

	tcases := []struct {
		raw   string
		valid bool
	}{
		{raw: "5", valid: true},
		{raw: "0"},
		{raw: "-3"},
		{raw: "abc"},
	}

	for _, tc := range tcases {
		t.Run(tc.raw, func(t *testing.T) {
			r := chi.NewRouter()
			var err error
			r.Get("/chatrooms/{id}", func(w http.ResponseWriter, req *http.Request) {
				_, err = pathID(req, "id")
			})
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/chatrooms/"+tc.raw, nil))

			if tc.valid {
				require.NoError(t, err)
			} else {
				require.True(t, errors.Is(err, apierror.ErrInvalidInput))
			}
		})
	}
}

func TestAuthHandlerCookies(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.auth.Register(rr, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", model.RegisterRequest{
		Fullname: "Ada", Email: "ada@example.com", Password: "analytical", ConfirmPassword: "analytical",
	}))
	require.Equal(t, http.StatusCreated, rr.Code)

	access := cookieNamed(rr, middleware.AccessTokenCookie)
	refresh := cookieNamed(rr, middleware.RefreshTokenCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	require.True(t, access.HttpOnly)
	require.True(t, access.Secure)
	require.Equal(t, http.SameSiteLaxMode, access.SameSite)
	require.NotContains(t, rr.Body.String(), access.Value, "tokens only travel in cookies")

	t.Run("refresh with the cookie sets a new access cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: refresh.Value})
		rr := httptest.NewRecorder()
		f.auth.Refresh(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		fresh := cookieNamed(rr, middleware.AccessTokenCookie)
		require.NotNil(t, fresh)
		_, err := f.sessions.VerifyAccess(fresh.Value)
		require.NoError(t, err)
		require.Nil(t, cookieNamed(rr, middleware.RefreshTokenCookie))
	})

	t.Run("refresh without a cookie sets nothing", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.auth.Refresh(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil))

		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.Empty(t, rr.Result().Cookies())
	})

	t.Run("refresh with an access token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: access.Value})
		rr := httptest.NewRecorder()
		f.auth.Refresh(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.Empty(t, rr.Result().Cookies())
	})

	t.Run("logout expires both cookies", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.auth.Logout(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
			c := cookieNamed(rr, name)
			require.NotNil(t, c)
			require.Empty(t, c.Value)
			require.Negative(t, c.MaxAge)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.auth.Login(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{")))
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Equal(t, apierror.CodeInvalidInput, decode(t, rr).Error.Code)
	})
}

// countingReader records how many bytes the handler pulled from the body.
type countingReader struct {
	r    io.Reader
	read int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	return n, err
}

type repeatByte byte

func (b repeatByte) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(b)
	}
	return len(p), nil
}

func TestOversizedBodyIsRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	body := &countingReader{r: io.MultiReader(
		strings.NewReader(`{"fullname":"`),
		io.LimitReader(repeatByte('a'), 64<<20),
		strings.NewReader(`","email":"ada@example.com","password":"secret1","confirm_password":"secret1"}`),
	)}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	f.auth.Register(rr, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	resp := decode(t, rr)
	require.Equal(t, apierror.CodeInvalidInput, resp.Error.Code)
	require.Less(t, body.read, 4*maxJSONBody)
	require.Nil(t, cookieNamed(rr, middleware.AccessTokenCookie))

	_, err := f.dir.Users.FindByEmail(req.Context(), "ada@example.com")
	require.True(t, errors.Is(err, apierror.ErrNotFound))
}

func TestDecodeJSONLimit(t *testing.T) {
	t.Parallel()

	payload := `{"content":"` + strings.Repeat("x", int(maxJSONBody)) + `"}`

	t.Run("over the limit", func(t *testing.T) {
		var dst model.SendMessageRequest
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		err := decodeJSON(httptest.NewRecorder(), req, &dst, maxJSONBody)

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusRequestEntityTooLarge, apiErr.HTTPStatus)
	})

	t.Run("image bodies get more room", func(t *testing.T) {
		var dst model.SendMessageRequest
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &dst, imageBodyLimit(1<<20)))
		require.Len(t, dst.Content, int(maxJSONBody))
	})

	t.Run("malformed body", func(t *testing.T) {
		var dst model.SendMessageRequest
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":`))
		err := decodeJSON(httptest.NewRecorder(), req, &dst, maxJSONBody)
		require.True(t, errors.Is(err, apierror.ErrInvalidInput))
	})
}

func TestChatroomHandlerRequiresClaims(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.chatroom.Create(rr, jsonRequest(t, http.MethodPost, "/api/v1/chatrooms", model.CreateChatroomRequest{Name: "general"}))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	rooms, err := f.dir.Chatrooms.ListForUser(t.Context(), 1)
	require.NoError(t, err)
	require.Empty(t, rooms)
}

func TestChatroomHandlerEnterPublishes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()

	user, err := f.dir.Users.Create(ctx, model.User{Fullname: "Ada", Email: "ada@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	room, err := f.dir.Chatrooms.Create(ctx, "general", user.ID)
	require.NoError(t, err)

	events, unsubscribe := f.bus.Subscribe(event.Topic(event.KindPresence, room.ID))
	defer unsubscribe()

	r := chi.NewRouter()
	r.Post("/chatrooms/{id}/enter", f.chatroom.Enter)

	req := httptest.NewRequest(http.MethodPost, "/chatrooms/"+itoa(room.ID)+"/enter", nil)
	req = req.WithContext(middleware.WithClaims(req.Context(), &model.AuthClaims{UserID: user.ID}))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"success":true,"data":true}`, rr.Body.String())

	e := <-events
	require.Equal(t, []model.PublicUser{user.Public()}, e.LiveUsers)

	t.Run("unknown chatroom", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/chatrooms/999/enter", nil)
		req = req.WithContext(middleware.WithClaims(req.Context(), &model.AuthClaims{UserID: user.ID}))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
