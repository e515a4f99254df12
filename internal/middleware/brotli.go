package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliOptions tunes the compression middleware.
type BrotliOptions struct {
	Quality int
	// MinLength is the body size below which responses go out uncompressed.
	MinLength int
}

var defaultBrotli = BrotliOptions{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
}

// Brotli compresses JSON and text responses for clients that accept br.
// The CAPTCHA screen carries a base64 image, so it is the response that
// benefits most.
func Brotli() gin.HandlerFunc {
	return BrotliWith(defaultBrotli)
}

// BrotliWith is Brotli with explicit options.
func BrotliWith(opts BrotliOptions) gin.HandlerFunc {
	if opts.Quality < brotli.BestSpeed || opts.Quality > brotli.BestCompression {
		opts.Quality = brotli.DefaultCompression
	}
	if opts.MinLength <= 0 {
		opts.MinLength = defaultBrotli.MinLength
	}

	pool := &sync.Pool{New: func() interface{} {
		return brotli.NewWriterLevel(nil, opts.Quality)
	}}

	return func(c *gin.Context) {
		if bodiless(c.Request.Method) || !acceptsBrotli(c.GetHeader("Accept-Encoding")) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")
		w := &brotliWriter{ResponseWriter: c.Writer, minLength: opts.MinLength, pool: pool}
		c.Writer = w
		defer func() {
			if err := w.finish(); err != nil {
				_ = c.Error(err)
			}
		}()
		c.Next()
	}
}

// brotliWriter holds the body back until it knows whether it is worth
// compressing, then either streams through an encoder or passes through.
type brotliWriter struct {
	gin.ResponseWriter
	minLength int
	pool      *sync.Pool

	pending     []byte
	enc         *brotli.Writer
	passThrough bool
}

func (w *brotliWriter) Write(p []byte) (int, error) {
	switch {
	case w.enc != nil:
		return w.enc.Write(p)
	case w.passThrough:
		return w.ResponseWriter.Write(p)
	}

	w.pending = append(w.pending, p...)
	if len(w.pending) < w.minLength {
		return len(p), nil
	}

	if !compressible(w.Header().Get("Content-Type")) {
		w.passThrough = true
	} else {
		w.Header().Set("Content-Encoding", "br")
		w.Header().Del("Content-Length")
		w.enc = w.pool.Get().(*brotli.Writer)
		w.enc.Reset(w.ResponseWriter)
	}

	buf := w.pending
	w.pending = nil
	if _, err := w.Write(buf); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// finish flushes a short body as-is or closes the encoder.
func (w *brotliWriter) finish() error {
	if w.enc == nil {
		if len(w.pending) == 0 {
			return nil
		}
		_, err := w.ResponseWriter.Write(w.pending)
		w.pending = nil
		return err
	}

	err := w.enc.Close()
	w.enc.Reset(nil)
	w.pool.Put(w.enc)
	w.enc = nil
	return err
}

func bodiless(method string) bool {
	return method == http.MethodHead || method == http.MethodOptions
}

func compressible(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" ||
		strings.HasPrefix(ct, "application/json") ||
		strings.HasPrefix(ct, "text/")
}

func acceptsBrotli(header string) bool {
	for _, enc := range strings.Split(header, ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "br") {
			return true
		}
	}
	return false
}
