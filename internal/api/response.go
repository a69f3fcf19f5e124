package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dshills/phraseclip/pkg/types"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// SearchResult is the body of a successful search
type SearchResult struct {
	Results []types.PhraseResult `json:"results"`
	Count   int                  `json:"count"`
	Query   string               `json:"query"`
}

// TooShortResult is returned instead of SearchResult when the query is
// shorter than two characters
type TooShortResult struct {
	Results []types.PhraseResult `json:"results"`
	Message string               `json:"message"`
}

// HealthResult is the body of the health route
type HealthResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorResponse{Error: msg})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
