package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/opsportal/portal/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func transport() httpx.CookieTransport {
	return httpx.CookieTransport{
		Secure:     false,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestSetAuthCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	transport().SetAuthCookies(rec, "access-value", "refresh-value")

	cookies := cookiesByName(rec)
	require.Len(t, cookies, 2)

	access := cookies[httpx.AccessTokenCookie]
	require.NotNil(t, access)
	require.Equal(t, "access-value", access.Value)
	require.Equal(t, 15*60, access.MaxAge)
	require.True(t, access.HttpOnly)
	require.Equal(t, "/", access.Path)
	require.Equal(t, http.SameSiteLaxMode, access.SameSite)
	require.False(t, access.Secure)

	refresh := cookies[httpx.RefreshTokenCookie]
	require.NotNil(t, refresh)
	require.Equal(t, "refresh-value", refresh.Value)
	require.Equal(t, 7*24*60*60, refresh.MaxAge)
	require.True(t, refresh.HttpOnly)
}

func TestSecureFlagInProduction(t *testing.T) {
	tr := transport()
	tr.Secure = true

	rec := httptest.NewRecorder()
	tr.SetAuthCookies(rec, "a", "r")

	for _, c := range rec.Result().Cookies() {
		require.True(t, c.Secure, "cookie %s", c.Name)
	}
}

func TestClearAuthCookiesIsIdempotent(t *testing.T) {
	// Clearing a response that never had cookies must still write both
	// cookies as expired.
	rec := httptest.NewRecorder()
	transport().ClearAuthCookies(rec)

	cookies := cookiesByName(rec)
	require.Len(t, cookies, 2)
	for _, name := range []string{httpx.AccessTokenCookie, httpx.RefreshTokenCookie} {
		c := cookies[name]
		require.NotNil(t, c, name)
		require.Empty(t, c.Value)
		require.Negative(t, c.MaxAge)
	}

	// Header text must carry Max-Age=0 so browsers actually drop them.
	for _, raw := range rec.Header().Values("Set-Cookie") {
		require.Contains(t, raw, "Max-Age=0")
	}

	// Clearing again is a no-op semantically.
	rec2 := httptest.NewRecorder()
	transport().ClearAuthCookies(rec2)
	transport().ClearAuthCookies(rec2)
	require.Len(t, rec2.Header().Values("Set-Cookie"), 4)
}

func TestTokensFromHeader(t *testing.T) {
	t.Run("both present", func(t *testing.T) {
		access, refresh := httpx.TokensFromHeader("accessToken=aaa.bbb.ccc; refreshToken=ddd.eee.fff; theme=dark")
		require.Equal(t, "aaa.bbb.ccc", access)
		require.Equal(t, "ddd.eee.fff", refresh)
	})

	t.Run("empty header", func(t *testing.T) {
		access, refresh := httpx.TokensFromHeader("")
		require.Empty(t, access)
		require.Empty(t, refresh)
	})

	t.Run("unrelated cookies only", func(t *testing.T) {
		access, refresh := httpx.TokensFromHeader("theme=dark; lang=en")
		require.Empty(t, access)
		require.Empty(t, refresh)
	})

	t.Run("value containing equals sign", func(t *testing.T) {
		access, _ := httpx.TokensFromHeader("accessToken=abc==")
		require.Equal(t, "abc==", access)
	})

	t.Run("malformed fragment skipped", func(t *testing.T) {
		access, refresh := httpx.TokensFromHeader("junk; accessToken=ok")
		require.Equal(t, "ok", access)
		require.Empty(t, refresh)
	})
}
