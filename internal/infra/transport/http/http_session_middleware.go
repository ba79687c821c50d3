package http

import (
	"context"
	"net/http"

	"github.com/mkrupp/homecase-gameapp/internal/domain"
	context_ "github.com/mkrupp/homecase-gameapp/internal/infra/context"
	"github.com/mkrupp/homecase-gameapp/internal/infra/logging"
)

// CurrentUserProvider reports the user logged in to the session.
type CurrentUserProvider interface {
	CurrentUser(ctx context.Context) (*domain.User, bool)
}

// SessionMiddleware rejects requests with 401 while nobody is logged in.
// Otherwise the current user is added to the request context.
func SessionMiddleware(
	next http.Handler,
	users CurrentUserProvider,
	log logging.Logger,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := users.CurrentUser(r.Context())
		if !ok {
			log.WarnContext(r.Context(), "no session")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

			return
		}

		next.ServeHTTP(w, r.WithContext(context_.WithSessionUser(r.Context(), user.ID, user.Username)))
	})
}
