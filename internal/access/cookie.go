// AngelaMos | 2026
// cookie.go

package access

import (
	"net/http"
	"time"

	"github.com/carterperez-dev/templates/identity-service/internal/config"
)

type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

func NewCookieConfig(cfg config.SessionConfig) CookieConfig {
	name := cfg.CookieName
	if name == "" {
		name = "session"
	}
	return CookieConfig{
		Name:   name,
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
	}
}

func (c CookieConfig) Set(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		Domain:   c.Domain,
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
