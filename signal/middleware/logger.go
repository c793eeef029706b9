// Package middleware contains common middleware functions for HTTP handlers.
package middleware

import (
	"bufio"
	"errors"
	"log"
	"net"
	"net/http"
)

// Logger logs requests and responses.
type Logger struct {
}

type logWriter struct {
	http.ResponseWriter
	statusCode int
}

func (l *logWriter) WriteHeader(code int) {
	l.statusCode = code
	l.ResponseWriter.WriteHeader(code)
}

// Hijack hijacks the connection. This is necessary for using websockets.
func (l *logWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := l.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

// NewLogger creates a new Logger middleware.
func NewLogger() *Logger {
	return &Logger{}
}

// Intercept logs the request and response.
func (l Logger) Intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := logWriter{ResponseWriter: w}
		next.ServeHTTP(&rw, r)
		if rw.statusCode >= 400 {
			log.Printf("%s %s fails with %d", r.Method, r.URL.Path, rw.statusCode)
		}
	})
}
