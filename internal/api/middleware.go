package api

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
)

func (s *StudyRoomApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				var panicError error
				switch e := err.(type) {
				case error:
					panicError = e
				default:
					panicError = fmt.Errorf("%v", e)
				}
				s.log.Error().Err(panicError).Str("path", r.URL.Path).Msg("panic")
				errResp := NewInternalServerError(panicError)
				w.Header().Set("Connection", "close")
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// logRequest is a handlers.LogFormatter that writes to the app logger
// instead of the given writer.
func (s *StudyRoomApp) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.log.Info().
		Str("method", p.Request.Method).
		Str("path", p.URL.Path).
		Int("status", p.StatusCode).
		Int("size", p.Size).
		Dur("duration", time.Since(p.TimeStamp)).
		Msg("request")
}
