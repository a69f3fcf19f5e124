package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dshills/phraseclip/internal/logger"
	"github.com/dshills/phraseclip/internal/phraseindex"
	"github.com/dshills/phraseclip/pkg/types"
)

// PhraseIndex is the read side of phraseindex.Index
type PhraseIndex interface {
	Search(ctx context.Context, query string) (*phraseindex.SearchResponse, error)
	GetByID(ctx context.Context, id int64) (*types.Phrase, error)
	Stats(ctx context.Context) (*types.Stats, error)
	Ping(ctx context.Context) error
}

// clipNotFound is the message clients see for a missing or malformed id
const clipNotFound = "Clip not found"

// PhraseHandler serves the phrase routes
type PhraseHandler struct {
	index PhraseIndex
	log   *logger.Logger
}

// NewPhraseHandler creates a handler over index
func NewPhraseHandler(index PhraseIndex, log *logger.Logger) *PhraseHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &PhraseHandler{index: index, log: log}
}

// Search handles GET /search?q=
func (h *PhraseHandler) Search(c *gin.Context) {
	resp, err := h.index.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.log.Error("search failed", "query", c.Query("q"), "error", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	if resp.TooShort {
		respondOK(c, TooShortResult{Results: resp.Results, Message: resp.Message})
		return
	}
	respondOK(c, SearchResult{
		Results: resp.Results,
		Count:   resp.Count,
		Query:   resp.Query,
	})
}

// GetClip handles GET /clip/:id
func (h *PhraseHandler) GetClip(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: clipNotFound})
		return
	}

	phrase, err := h.index.GetByID(c.Request.Context(), id)
	if errors.Is(err, types.ErrPhraseNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: clipNotFound})
		return
	}
	if err != nil {
		h.log.Error("get clip failed", "id", id, "error", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, phrase)
}

// Stats handles GET /stats
func (h *PhraseHandler) Stats(c *gin.Context) {
	stats, err := h.index.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("stats failed", "error", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, stats)
}

// Health handles GET /health. It never touches storage.
func (h *PhraseHandler) Health(c *gin.Context) {
	respondOK(c, HealthResult{Status: "ok", Message: "Server is running"})
}

// Ready handles GET /readyz
func (h *PhraseHandler) Ready(c *gin.Context) {
	if err := h.index.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthResult{Status: "fail", Message: err.Error()})
		return
	}
	respondOK(c, HealthResult{Status: "ok", Message: "storage reachable"})
}
