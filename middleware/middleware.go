package middleware

import (
	"encoding/json"
	"mime"
	"net/http"
	"runtime/debug"
	"time"

	"trello-project/microservices/tasktracker-service/logging"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxBodyBytes caps request bodies at 100 KiB.
const MaxBodyBytes = 100 << 10

func EnableCORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, PUT, PATCH, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

// JSONBody limits body size. A body declared as anything other than JSON is
// not read, so handlers see the request as if it had no body. Bodies without
// a Content-Type are read as JSON.
func JSONBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && r.ContentLength != 0 {
			if ct := r.Header.Get("Content-Type"); ct != "" {
				mediaType, _, err := mime.ParseMediaType(ct)
				if err != nil || mediaType != "application/json" {
					logging.Logger.Warnf("%s %s: ignoring body with content type %q", r.Method, r.URL.Path, ct)
					r.Body = http.NoBody
					r.ContentLength = 0
					next.ServeHTTP(w, r)
					return
				}
			}
			r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// RequestLogger logs one line per request and tags the response with an
// X-Request-ID.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		entry := logging.Logger.WithFields(logrus.Fields{
			"requestId": requestID,
			"status":    rec.status,
			"bytes":     rec.bytes,
			"duration":  time.Since(start).String(),
		})
		switch {
		case rec.status >= 500:
			entry.Errorf("%s %s", r.Method, r.URL.RequestURI())
		case rec.status >= 400:
			entry.Warnf("%s %s", r.Method, r.URL.RequestURI())
		default:
			entry.Infof("%s %s", r.Method, r.URL.RequestURI())
		}
	})
}

// Recover turns a panicking handler into a 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logging.Logger.Errorf("Event ID: HANDLER_PANIC, Description: %s %s panicked: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				writeMessage(w, http.StatusInternalServerError, "Internal server error.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Chain wraps the API router in the full middleware stack. Request logging
// is outermost so preflights and rejected bodies are logged too.
func Chain(router http.Handler, corsOrigin string) http.Handler {
	h := Recover(router)
	h = JSONBody(h)
	h = EnableCORS(corsOrigin)(h)
	return RequestLogger(h)
}
