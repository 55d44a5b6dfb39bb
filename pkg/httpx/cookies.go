package httpx

import (
	"net/http"
	"strings"
	"time"
)

// Cookie names the browser round-trips on every request.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// CookieTransport serializes the token pair into httpOnly cookies and
// parses them back out of a raw Cookie header. Cookie lifetimes mirror the
// token TTLs so the browser drops a cookie at the same moment its token
// stops verifying.
type CookieTransport struct {
	Secure     bool // set in production-like environments
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SetAuthCookies writes both credential cookies on the response.
func (c CookieTransport) SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, c.cookie(AccessTokenCookie, accessToken, int(c.AccessTTL.Seconds())))
	http.SetCookie(w, c.cookie(RefreshTokenCookie, refreshToken, int(c.RefreshTTL.Seconds())))
}

// ClearAuthCookies unconditionally rewrites both cookies as expired.
// Logout must be idempotent: clearing cookies that were never set is fine.
func (c CookieTransport) ClearAuthCookies(w http.ResponseWriter) {
	// net/http writes "Max-Age=0" for any negative MaxAge; zero would
	// omit the attribute entirely.
	http.SetCookie(w, c.cookie(AccessTokenCookie, "", -1))
	http.SetCookie(w, c.cookie(RefreshTokenCookie, "", -1))
}

func (c CookieTransport) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// TokensFromRequest extracts both tokens from the request's Cookie header.
func TokensFromRequest(r *http.Request) (accessToken, refreshToken string) {
	return TokensFromHeader(r.Header.Get("Cookie"))
}

// TokensFromHeader parses a raw Cookie header into the token pair. Absent
// header or absent cookie yields the empty string; malformed fragments are
// skipped rather than surfaced.
func TokensFromHeader(header string) (accessToken, refreshToken string) {
	if header == "" {
		return "", ""
	}
	for _, pair := range strings.Split(header, "; ") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		switch name {
		case AccessTokenCookie:
			accessToken = value
		case RefreshTokenCookie:
			refreshToken = value
		}
	}
	return accessToken, refreshToken
}
