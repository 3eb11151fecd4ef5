package rest

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/query"
)

// ListOwnedQueryParams holds query parameters for GET /owners/:address/tokens
type ListOwnedQueryParams struct {
	Limit int    `form:"limit,default=50"`
	After string `form:"after"`
}

// ParseListOwnedQuery parses query parameters for GET /owners/:address/tokens
func ParseListOwnedQuery(c *gin.Context) (*ListOwnedQueryParams, error) {
	var params ListOwnedQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	return &params, nil
}

// Validate checks the parameters and converts them to a page request
func (p *ListOwnedQueryParams) Validate() (query.Page, error) {
	if p.Limit < 1 || p.Limit > query.MaxPageLimit {
		return query.Page{}, fmt.Errorf("limit must be between 1 and %d", query.MaxPageLimit)
	}

	page := query.Page{Limit: p.Limit}
	if p.After != "" {
		after, err := domain.ParseTokenID(p.After)
		if err != nil {
			return query.Page{}, fmt.Errorf("after must be a token id: %w", err)
		}
		page.After = after
	}

	return page, nil
}
