package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pawloan/accounts/internal/ctxkeys"
)

func csrfTestHandler(t *testing.T) (http.Handler, *string) {
	t.Helper()

	var seenToken string
	h := CSRFProtection(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenToken = ctxkeys.CSRFToken(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return h, &seenToken
}

func csrfCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			return c
		}
	}
	t.Fatal("csrf cookie not set")
	return nil
}

func TestCSRFGetSetsCookieAndContext(t *testing.T) {
	h, seenToken := csrfTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/profile", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	cookie := csrfCookie(t, rec)
	assert.NotEmpty(t, cookie.Value)
	assert.Equal(t, cookie.Value, *seenToken)
	assert.True(t, cookie.HttpOnly)
}

func TestCSRFPostWithoutTokenIsRejected(t *testing.T) {
	h, _ := csrfTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/account-settings", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFPostWithFormTokenPasses(t *testing.T) {
	h, _ := csrfTestHandler(t)

	// First request obtains the cookie
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/profile", nil))
	cookie := csrfCookie(t, rec)

	form := url.Values{csrfFormField: {cookie.Value}}
	req := httptest.NewRequest("POST", "/account-settings", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFPostWithHeaderTokenPasses(t *testing.T) {
	h, _ := csrfTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/profile", nil))
	cookie := csrfCookie(t, rec)

	req := httptest.NewRequest("POST", "/account-settings", nil)
	req.Header.Set(csrfHeader, cookie.Value)
	req.AddCookie(cookie)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFPostWithWrongTokenIsRejected(t *testing.T) {
	h, _ := csrfTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/profile", nil))
	cookie := csrfCookie(t, rec)

	req := httptest.NewRequest("POST", "/account-settings", nil)
	req.Header.Set(csrfHeader, "not-the-token")
	req.AddCookie(cookie)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	// Separate IPs track separately
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(req))
}
