// Package server exposes a reference genome over HTTP.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inodb/vibe-ref/internal/reference"
)

// RequestIDHeader carries the per-request identifier on every response.
const RequestIDHeader = "X-Request-ID"

type contigJSON struct {
	Name     string `json:"name"`
	Length   int64  `json:"length"`
	Position int    `json:"position"`
}

type sequenceJSON struct {
	Contig string `json:"contig"`
	Start  int64  `json:"start"`
	End    int64  `json:"end"`
	Bases  string `json:"bases"`
}

type errorJSON struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

// NewRouter builds the HTTP handlers over pool.
func NewRouter(pool *Pool, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(requestID(), accessLog(logger), gin.Recovery())

	h := &handlers{pool: pool, logger: logger}
	r.GET("/contigs", h.listContigs)
	r.GET("/contigs/:name", h.getContig)
	r.GET("/sequence/:contig", h.getSequence)
	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("request_id", c.GetString(RequestIDHeader)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// statusFor maps reader errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, reference.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, reference.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, reference.ErrFailedPrecondition):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type handlers struct {
	pool   *Pool
	logger *zap.Logger
}

func (h *handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("request_id", c.GetString(RequestIDHeader)), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, errorJSON{Error: err.Error(), RequestID: c.GetString(RequestIDHeader)})
}

func (h *handlers) listContigs(c *gin.Context) {
	contigs := h.pool.Contigs()
	out := make([]contigJSON, len(contigs))
	for i, ct := range contigs {
		out[i] = contigJSON{Name: ct.Name, Length: ct.Length, Position: ct.Position}
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) findContig(name string) (reference.Contig, error) {
	for _, ct := range h.pool.Contigs() {
		if ct.Name == name {
			return ct, nil
		}
	}
	return reference.Contig{}, fmt.Errorf("%w: unknown contig %s", reference.ErrNotFound, name)
}

func (h *handlers) getContig(c *gin.Context) {
	ct, err := h.findContig(c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, contigJSON{Name: ct.Name, Length: ct.Length, Position: ct.Position})
}

// parseBound reads an optional non-negative query parameter.
func parseBound(c *gin.Context, key string, def int64) (int64, error) {
	s := c.Query(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: parsing %s %q", reference.ErrInvalidArgument, key, s)
	}
	return n, nil
}

// getSequence serves bases [start, end) of a contig. A missing end means the
// contig end; an end past it is rejected.
func (h *handlers) getSequence(c *gin.Context) {
	ct, err := h.findContig(c.Param("contig"))
	if err != nil {
		h.fail(c, err)
		return
	}
	start, err := parseBound(c, "start", 0)
	if err != nil {
		h.fail(c, err)
		return
	}
	end, err := parseBound(c, "end", ct.Length)
	if err != nil {
		h.fail(c, err)
		return
	}
	rng := reference.Range{Contig: ct.Name, Start: start, End: end}

	ref, err := h.pool.Acquire(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	bases, err := ref.Bases(rng)
	if rerr := h.pool.Release(ref); rerr != nil {
		h.logger.Warn("closing reader after shutdown", zap.Error(rerr))
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, sequenceJSON{Contig: rng.Contig, Start: rng.Start, End: rng.End, Bases: bases})
		return
	}
	c.String(http.StatusOK, bases)
}
