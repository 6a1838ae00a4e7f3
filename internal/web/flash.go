package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/churchbase/internal/core"
)

const flashCookie = "churchbase_flash"

// setFlash stores notices for the next page render. They survive exactly
// one redirect.
func setFlash(w http.ResponseWriter, notices ...core.Notice) {
	if len(notices) == 0 {
		return
	}
	b, err := json.Marshal(notices)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/admin",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears pending notices. A tampered cookie yields none.
func popFlash(w http.ResponseWriter, r *http.Request) []core.Notice {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var notices []core.Notice
	if err := json.Unmarshal(b, &notices); err != nil {
		return nil
	}
	return notices
}

// redirectWithFlash is the post/redirect/get step for admin forms.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, to string, notices ...core.Notice) {
	setFlash(w, notices...)
	http.Redirect(w, r, to, http.StatusSeeOther)
}
