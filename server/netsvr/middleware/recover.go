package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/server/httperr"
)

// Recover chi 預設的 Recoverer，stack 寫到 stderr。
func Recover(next http.Handler) http.Handler {
	return chimid.Recoverer(next)
}

// RecoverLog 攔截 panic，寫一筆含 stack 的 error log 並回 500 JSON。
// http.ErrAbortHandler 照原樣往上丟。
func RecoverLog(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		return Recover
	}
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
				log.Error("http.panic",
					slog.Any("panic", rec),
					slog.String("path", r.URL.Path),
					slog.String("req_id", GetReqId(r)),
					slog.String("stack", string(debug.Stack())),
				)
				httperr.Errs(w, errs.NewFatal(fmt.Sprintf("internal panic: %v", rec)))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
