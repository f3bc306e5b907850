package web

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// ClientCookie identifies a browser; its storage is scoped under this id.
const ClientCookie = "whisk_client"

type clientKey struct{}

// withClient makes sure every request carries a client id, issuing a new one
// when the cookie is missing or not a uuid.
func withClient(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(ClientCookie); err == nil {
			if u, err := uuid.Parse(c.Value); err == nil {
				id = u.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ClientCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   10 * 365 * 24 * 60 * 60,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		h.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientKey{}, id)))
	})
}

func clientID(r *http.Request) string {
	id, _ := r.Context().Value(clientKey{}).(string)
	return id
}
