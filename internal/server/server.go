// Package server exposes the effect decoder over HTTP.
package server

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"

	"fxinspect/internal/effect"
	"fxinspect/internal/fxfmt"
	"fxinspect/internal/lzx"
	"fxinspect/internal/refgraph"
	"fxinspect/internal/xnb"
)

// DefaultCacheSize is the number of decoded archives kept when Config
// leaves it unset.
const DefaultCacheSize = 128

// Config configures a Server.
type Config struct {
	CacheSize int
	Options   fxfmt.Options
}

// ErrorInfo is the error body of a failed request.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DecodeOutput is the response of /api/decode.
type DecodeOutput struct {
	OK        bool           `json:"ok"`
	XNB       bool           `json:"xnb"`
	SHA256    string         `json:"sha256,omitempty"`
	Effect    *effect.Effect `json:"effect,omitempty"`
	Container *xnb.Content   `json:"container,omitempty"`
	Diags     []fxfmt.Diag   `json:"diags,omitempty"`
	Error     *ErrorInfo     `json:"error,omitempty"`
}

// Server decodes uploaded archives and caches results by content hash.
type Server struct {
	opts   fxfmt.Options
	cache  *lru.Cache[string, *effect.Result]
	router *gin.Engine
}

// New builds a server and its routes.
func New(cfg Config) (*Server, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *effect.Result](size)
	if err != nil {
		return nil, fmt.Errorf("server: cache: %w", err)
	}
	s := &Server{opts: cfg.Options, cache: cache}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		ExposeHeaders:   []string{"X-Cache"},
	}))
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/api/decode", s.handleDecode)
	r.POST("/api/graph", s.handleGraph)
	s.router = r
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error { return s.router.Run(addr) }

// Addr returns addr, or ":$PORT" when addr is empty, or ":3000".
func Addr(addr string) string {
	if addr != "" {
		return addr
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":3000"
}

func (s *Server) handleDecode(c *gin.Context) {
	sum, res, ok := s.decode(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, DecodeOutput{
		OK:        true,
		XNB:       res.XNB != nil,
		SHA256:    sum,
		Effect:    res.Effect,
		Container: res.XNB,
		Diags:     res.Diags,
	})
}

func (s *Server) handleGraph(c *gin.Context) {
	sum, res, ok := s.decode(c)
	if !ok {
		return
	}
	title := c.DefaultQuery("title", sum[:12])
	var dot string
	switch view := c.DefaultQuery("view", "refs"); view {
	case "refs":
		dot = refgraph.DOT(res.Effect, title)
	case "techniques":
		dot = refgraph.TechniquesDOT(res.Effect, title)
	default:
		c.JSON(http.StatusBadRequest, DecodeOutput{
			Error: &ErrorInfo{Code: "INVALID_REQUEST", Message: fmt.Sprintf("unknown view %q", view)},
		})
		return
	}
	c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(dot))
}

// decode reads the request body and returns the cached or freshly decoded
// result. On failure the error response has been written.
func (s *Server) decode(c *gin.Context) (string, *effect.Result, bool) {
	limit := int64(s.opts.EffectiveMaxBytes())
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "TOO_LARGE", err)
			return "", nil, false
		}
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return "", nil, false
	}
	if len(body) == 0 {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", errors.New("empty body"))
		return "", nil, false
	}

	h := sha256.Sum256(body)
	sum := hex.EncodeToString(h[:])
	if res, ok := s.cache.Get(sum); ok {
		c.Header("X-Cache", "hit")
		return sum, res, true
	}
	c.Header("X-Cache", "miss")

	res, err := effect.Decode(body, s.opts)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrorCode(err), err)
		return "", nil, false
	}
	s.cache.Add(sum, res)
	return sum, res, true
}

func fail(c *gin.Context, status int, code string, err error) {
	c.JSON(status, DecodeOutput{Error: &ErrorInfo{Code: code, Message: err.Error()}})
}

// ErrorCode classifies a decode error for API clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, fxfmt.ErrHeaderMismatch):
		return "HEADER_MISMATCH"
	case errors.Is(err, xnb.ErrTooLarge):
		return "TOO_LARGE"
	case errors.Is(err, xnb.ErrUnknownContentType), errors.Is(err, xnb.ErrNotAnEffect):
		return "NOT_AN_EFFECT"
	case errors.Is(err, lzx.ErrUnsupportedWindowSize),
		errors.Is(err, lzx.ErrMalformedHuffmanTable),
		errors.Is(err, lzx.ErrInvalidBlockType),
		errors.Is(err, lzx.ErrWindowOverrun),
		errors.Is(err, lzx.ErrTruncatedInput),
		errors.Is(err, lzx.ErrDecompressionSizeMismatch),
		errors.Is(err, lzx.ErrHuffmanDecodeUnderflow),
		errors.Is(err, lzx.ErrUnexpectedEnd):
		return "DECOMPRESSION_ERROR"
	case errors.Is(err, fxfmt.ErrStreamEOF), errors.Is(err, fxfmt.ErrSeekRange), errors.Is(err, fxfmt.ErrStreamOverrun):
		return "TRUNCATED"
	}
	return "DECODE_ERROR"
}
