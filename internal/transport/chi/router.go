package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/knowhub/internal/metrics"
)

// NewRouter mounts the API of s behind recovery, request ids, access logging,
// auth and metrics, in that order.
func NewRouter(s *Server, logger *zap.Logger, apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(
		jsonRecoverer(logger),
		chiMiddleware.RealIP,
		chiMiddleware.RequestID,
		accessLog(logger),
		BearerAuthMiddleware(apiKeys),
		metrics.Middleware(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	s.Register(r)
	return r
}
