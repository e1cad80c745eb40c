// AngelaMos | 2026
// recoverer.go

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/carterperez-dev/solution-ledger/internal/core"
)

// Recoverer turns a panic into a 500 envelope. The stack trace is only
// echoed to the client when exposeStack is set (development).
func Recoverer(logger *slog.Logger, exposeStack bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := string(debug.Stack())
				logger.Error("panic recovered",
					"panic", fmt.Sprint(rec),
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
					"stack", stack,
				)

				body := &core.ErrorBody{
					Code:    "INTERNAL_ERROR",
					Message: "an unexpected error occurred",
				}
				if exposeStack {
					body.Stack = stack
				}

				core.JSON(w, http.StatusInternalServerError, core.Response{
					Success: false,
					Error:   body,
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
