package middleware

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const credentialsKey ctxKey = "credentials"

type Credentials struct {
	Username string
	Password string
}

// AuthContext stores HTTP Basic credentials in the request context. Requests
// without them pass through; handlers decide whether to answer 401.
func AuthContext(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok || strings.TrimSpace(username) == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(
				r.Context(), credentialsKey, Credentials{
					Username: strings.TrimSpace(username),
					Password: password,
				},
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		},
	)
}

func GetCredentials(ctx context.Context) (Credentials, bool) {
	v := ctx.Value(credentialsKey)
	if v == nil {
		return Credentials{}, false
	}
	c, ok := v.(Credentials)
	return c, ok
}
