package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/gigboard/pkg/helpers"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey))
	})
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuth_TokenSources(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", time.Hour)
	uid := uuid.NewString()
	tok, _, err := jwt.GenerateAccessToken(uid)
	require.NoError(t, err)
	r := newEngine(Auth(nil, jwt))

	cases := []struct {
		name  string
		build func() *http.Request
		code  int
	}{
		{"bearer header", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			return req
		}, http.StatusOK},
		{"cookie", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.AddCookie(&http.Cookie{Name: "access_token", Value: tok})
			return req
		}, http.StatusOK},
		{"query", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/whoami?access_token="+tok, nil)
		}, http.StatusOK},
		{"missing", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/whoami", nil)
		}, http.StatusUnauthorized},
		{"wrong scheme", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.Header.Set("Authorization", "Basic "+tok)
			return req
		}, http.StatusUnauthorized},
		{"other secret", func() *http.Request {
			other, _, _ := helpers.NewJWTManager("other", time.Hour).GenerateAccessToken(uid)
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.Header.Set("Authorization", "Bearer "+other)
			return req
		}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(r, tc.build())
			require.Equal(t, tc.code, rec.Code)
			if tc.code == http.StatusOK {
				require.Equal(t, uid, rec.Body.String())
			}
		})
	}
}

func TestAuth_SessionStoreDown(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", time.Hour)
	tok, _, err := jwt.GenerateAccessToken(uuid.NewString())
	require.NoError(t, err)
	rdb := helpers.NewRedisClient("127.0.0.1:1", "", 0)
	defer func() { _ = rdb.Close() }()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := serve(newEngine(Auth(rdb, jwt)), req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestID(t *testing.T) {
	req := require.New(t)
	r := newEngine(RequestIDMiddleware())

	// Given no incoming id, one is generated
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	req.NoError(err)

	// A valid incoming id is kept
	keep := uuid.NewString()
	in := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	in.Header.Set("X-Request-ID", keep)
	req.Equal(keep, serve(r, in).Header().Get("X-Request-ID"))

	// Garbage is replaced
	in = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	in.Header.Set("X-Request-ID", "<script>")
	req.NotEqual("<script>", serve(r, in).Header().Get("X-Request-ID"))
}

func TestOnlyPrivateIP(t *testing.T) {
	r := newEngine(RealIP(), Only(AllowPrivateIP()))

	for ip, code := range map[string]int{
		"10.0.0.4":    http.StatusOK,
		"127.0.0.1":   http.StatusOK,
		"192.168.1.9": http.StatusOK,
		"8.8.8.8":     http.StatusNotFound,
	} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("CF-Connecting-IP", ip)
		require.Equal(t, code, serve(r, req).Code, ip)
	}
}

func TestRealIP_Precedence(t *testing.T) {
	req := require.New(t)
	var got string
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { got = c.GetString("real_ip") })

	in := httptest.NewRequest(http.MethodGet, "/", nil)
	in.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	serve(r, in)
	req.Equal("203.0.113.9", got)

	in.Header.Set("CF-Connecting-IP", "198.51.100.2")
	serve(r, in)
	req.Equal("198.51.100.2", got)
}

func TestRateLimit_DisabledAndFailOpen(t *testing.T) {
	req := require.New(t)

	// No Redis: limiter is a no-op
	r := newEngine(RateLimit(nil, 1, time.Minute, KeyByIP(), nil))
	for i := 0; i < 3; i++ {
		req.Equal(http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/whoami", nil)).Code)
	}

	// Unreachable Redis: requests pass
	rdb := helpers.NewRedisClient("127.0.0.1:1", "", 0)
	defer func() { _ = rdb.Close() }()
	r = newEngine(RateLimit(rdb, 1, time.Minute, KeyByUserAndRoute(), nil))
	for i := 0; i < 3; i++ {
		req.Equal(http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/whoami", nil)).Code)
	}
}

func TestKeyFuncs(t *testing.T) {
	req := require.New(t)
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/chat/messages", nil)
	c.Set("real_ip", "10.0.0.7")

	req.Equal("rl:ip:10.0.0.7", KeyByIP()(c))
	req.Equal("rl:user:anon:ip:10.0.0.7", KeyByUserID()(c))

	c.Set(CtxUserIDKey, "u1")
	req.Equal("rl:user:u1", KeyByUserID()(c))
	req.Equal("rl:user:u1:route:POST /api/chat/messages", KeyByUserAndRoute()(c))
}
