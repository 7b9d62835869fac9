package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRequireAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestManager(t)
	pair, err := m.IssuePair(time.Now(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := gin.New()
	r.GET("/x", RequireAccessToken(m), func(c *gin.Context) {
		uid, err := UserID(c.Request.Context())
		if err != nil {
			c.Status(500)
			return
		}
		c.String(200, uid)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + pair.AccessToken, 200},
		{"missing", "", 401},
		{"refresh token", "Bearer " + pair.RefreshToken, 401},
		{"garbage", "Bearer nope", 401},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, w.Code)
		}
		if tc.want == 200 && w.Body.String() != "user-1" {
			t.Fatalf("%s: unexpected body %q", tc.name, w.Body.String())
		}
	}
}

func TestRequireAPIKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", RequireAPIKey("k3y"), func(c *gin.Context) { c.Status(200) })

	cases := []struct {
		name   string
		target string
		header map[string]string
		want   int
	}{
		{"bearer", "/x", map[string]string{"Authorization": "Bearer k3y"}, 200},
		{"header", "/x", map[string]string{"X-API-Key": "k3y"}, 200},
		{"query", "/x?apiKey=k3y", nil, 200},
		{"missing", "/x", nil, 401},
		{"wrong", "/x", map[string]string{"X-API-Key": "nope"}, 401},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, tc.target, nil)
		for k, v := range tc.header {
			req.Header.Set(k, v)
		}
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, w.Code)
		}
	}
}

func TestRequireAPIKey_EmptyKeyAllowsAll(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", RequireAPIKey(""), func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequireIssuerKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{"unconfigured", "", "", 503},
		{"unconfigured with header", "", "anything", 503},
		{"configured missing", "k3y", "", 401},
		{"configured wrong", "k3y", "nope", 401},
		{"configured ok", "k3y", "k3y", 200},
	}
	for _, tc := range cases {
		r := gin.New()
		r.POST("/token", RequireIssuerKey(tc.key), func(c *gin.Context) { c.Status(200) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/token", nil)
		if tc.header != "" {
			req.Header.Set("X-API-Key", tc.header)
		}
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, w.Code)
		}
	}
}
