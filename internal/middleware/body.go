package middleware

import (
	"mime"
	"net/http"
)

// DefaultMaxRequestSize caps request bodies at 1MB
const DefaultMaxRequestSize int64 = 1 << 20

// ContentType requires a JSON or multipart form media type on POST, PUT and
// PATCH requests that carry a body. A bodyless POST such as a retrain trigger
// passes.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Content-Type")
		if header == "" {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, r, http.StatusBadRequest, "Content-Type header is required", nil)
			return
		}

		mediaType, _, err := mime.ParseMediaType(header)
		if err != nil || (mediaType != "application/json" && mediaType != "multipart/form-data") {
			writeError(w, r, http.StatusUnsupportedMediaType, "Content-Type must be application/json or multipart/form-data", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SizeLimit overrides the body cap for one exact request path
type SizeLimit struct {
	Path     string
	MaxBytes int64
}

// MaxRequestSize rejects declared bodies over maxBytes up front and caps
// reads of chunked bodies, so decoders fail with *http.MaxBytesError.
// Paths listed in overrides get their own cap.
func MaxRequestSize(maxBytes int64, overrides ...SizeLimit) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}
	limits := make(map[string]int64, len(overrides))
	for _, o := range overrides {
		if o.MaxBytes > 0 {
			limits[o.Path] = o.MaxBytes
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := maxBytes
			if l, ok := limits[r.URL.Path]; ok {
				limit = l
			}
			if r.ContentLength > limit {
				writeError(w, r, http.StatusRequestEntityTooLarge, "request body is too large", nil)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
