package mw

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
)

type accessKey struct{}

// access collects what the handlers below Log learned about a request.
type access struct {
	deploymentID string
	strategy     string
}

// noteRedirect records the resolved deployment for the access log line.
func noteRedirect(ctx context.Context, deploymentID, strategy string) {
	if a, ok := ctx.Value(accessKey{}).(*access); ok {
		a.deploymentID = deploymentID
		a.strategy = strategy
	}
}

// statusWriter captures status code and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Flush keeps streamed upstream responses working through the proxy.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Log writes one access line per request. Redirected requests carry the
// target deployment id and the strategy that chose it; 5xx are logged at warn.
func Log(loggerClient logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w}
			rec := &access{}

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), accessKey{}, rec)))

			if ww.status == 0 {
				ww.status = http.StatusOK
			}
			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", ww.status),
				logger.Int("bytes", ww.bytes),
				logger.Duration("duration", time.Since(start)),
				logger.String("remote_ip", r.RemoteAddr),
				logger.String("request_id", middleware.GetReqID(r.Context())),
			}
			if rec.deploymentID != "" {
				fields = append(fields,
					logger.String("deployment_id", rec.deploymentID),
					logger.String("strategy", rec.strategy))
			}

			if ww.status >= http.StatusInternalServerError {
				loggerClient.Warn("http_request", fields...)
				return
			}
			loggerClient.Info("http_request", fields...)
		})
	}
}
