package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"locagest/internal/domain"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const OwnerIDKey ctxKey = "ownerID"

type TokenFinder interface {
	FindTokenByPlainToken(ctx context.Context, plainToken string) (*domain.PersonalAccessToken, error)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// SanctumMiddleware authenticates the request with a personal access token
// taken from the Authorization header or, for websocket clients, the token
// query parameter.
func SanctumMiddleware(tokens TokenFinder, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path})

			var pat *domain.PersonalAccessToken
			for _, plain := range []string{bearerToken(r), r.URL.Query().Get("token")} {
				if plain == "" {
					continue
				}
				p, err := tokens.FindTokenByPlainToken(r.Context(), plain)
				if err != nil {
					entry.WithError(err).Debug("token lookup failed")
					continue
				}
				pat = p
				break
			}

			if pat == nil {
				entry.Debug("no valid token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if pat.Expired(time.Now()) {
				entry.WithField("token_id", pat.ID).Debug("token expired")
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), pat.OwnerID)))
		})
	}
}

func WithOwnerID(ctx context.Context, ownerID int64) context.Context {
	return context.WithValue(ctx, OwnerIDKey, ownerID)
}

func GetOwnerID(ctx context.Context) (int64, error) {
	ownerID, ok := ctx.Value(OwnerIDKey).(int64)
	if !ok {
		return 0, errors.New("owner id not found in context")
	}
	return ownerID, nil
}
