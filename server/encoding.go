package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gorilla/handlers"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// Encode compresses responses with brotli or zstd when the client accepts them,
// and otherwise falls back to gzip/deflate negotiation.
func Encode(next http.Handler) http.Handler {
	fallback := handlers.CompressHandler(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept := r.Header.Get("Accept-Encoding")

		var enc io.WriteCloser
		var name string
		switch {
		case accepts(accept, "br"):
			enc, name = brotli.NewWriter(w), "br"
		case accepts(accept, "zstd"):
			zw, err := zstd.NewWriter(w)
			if err != nil {
				zap.L().Warn("zstd encoder", zap.Error(err))
				fallback.ServeHTTP(w, r)
				return
			}
			enc, name = zw, "zstd"
		default:
			fallback.ServeHTTP(w, r)
			return
		}
		defer func() {
			if err := enc.Close(); err != nil {
				zap.L().Debug("close encoder", zap.String("encoding", name), zap.Error(err))
			}
		}()

		w.Header().Set("Content-Encoding", name)
		w.Header().Add("Vary", "Accept-Encoding")
		next.ServeHTTP(&encodedWriter{ResponseWriter: w, w: enc}, r)
	})
}

type encodedWriter struct {
	http.ResponseWriter
	w io.Writer
}

func (e *encodedWriter) WriteHeader(code int) {
	e.Header().Del("Content-Length")
	e.ResponseWriter.WriteHeader(code)
}

func (e *encodedWriter) Write(b []byte) (int, error) {
	if e.Header().Get("Content-Type") == "" {
		e.Header().Set("Content-Type", http.DetectContentType(b))
	}
	e.Header().Del("Content-Length")
	return e.w.Write(b)
}

// accepts reports whether the Accept-Encoding header allows coding.
// A q value of 0 refuses it.
func accepts(header, coding string) bool {
	for _, part := range strings.Split(header, ",") {
		token, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(token), coding) {
			continue
		}
		q := strings.ReplaceAll(strings.TrimSpace(params), " ", "")
		return q != "q=0" && q != "q=0.0" && q != "q=0.00" && q != "q=0.000"
	}
	return false
}
