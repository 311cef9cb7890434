package echoapi

import (
	"crypto/sha256"
	"crypto/sha512"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

const sessionCookieName = "student_portal_session"

var contextSessionKey = "session"

// SessionData is the authenticated-user record sealed into the session cookie.
type SessionData struct {
	UserID     string `json:"user_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
	IsLoggedIn bool   `json:"is_logged_in,omitempty"`
}

func (sd SessionData) IsAdmin() bool {
	return sd.Role == user.RoleAdmin
}

func (sd SessionData) IsStudent() bool {
	return sd.Role == user.RoleStudent
}

// sessionManager seals and unseals SessionData into the session cookie
// (HMAC-signed + AES-encrypted). Keys are derived from the app secret.
type sessionManager struct {
	sc     *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
}

func newSessionManager(conf *core.Config) *sessionManager {
	hashKey := sha512.Sum512([]byte(conf.SecretKey))
	blockKey := sha256.Sum256([]byte(conf.SecretKey))
	sc := securecookie.New(hashKey[:], blockKey[:])
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(int(conf.SessionMaxAge / time.Second))
	return &sessionManager{
		sc:     sc,
		maxAge: conf.SessionMaxAge,
		secure: !conf.Debug,
	}
}

// load unseals the request's session cookie. A missing, expired or tampered
// cookie yields a logged-out session; it never errors to the caller.
func (sm *sessionManager) load(ctx echo.Context) SessionData {
	cookie, err := ctx.Cookie(sessionCookieName)
	if err != nil {
		return SessionData{}
	}
	var data SessionData
	if err = sm.sc.Decode(sessionCookieName, cookie.Value, &data); err != nil {
		return SessionData{}
	}
	return data
}

func (sm *sessionManager) establish(ctx echo.Context, data SessionData) error {
	data.IsLoggedIn = true
	sealed, err := sm.sc.Encode(sessionCookieName, data)
	if err != nil {
		return errors.Wrap(err, "sealing session")
	}
	ctx.SetCookie(sm.cookie(sealed, int(sm.maxAge/time.Second)))
	return nil
}

func (sm *sessionManager) destroy(ctx echo.Context) {
	ctx.SetCookie(sm.cookie("", -1))
}

func (sm *sessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// middleware unseals the session once per request and stashes it in the context.
func (sm *sessionManager) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ctx.Set(contextSessionKey, sm.load(ctx))
		return next(ctx)
	}
}

func getContextSession(ctx echo.Context) SessionData {
	if sess, ok := ctx.Get(contextSessionKey).(SessionData); ok {
		return sess
	}
	return SessionData{}
}
