package xquisito

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/xquisito/pickandgo/internal/models"
)

// MenuForBranch returns the menu sections served at one branch.
func (c *Client) MenuForBranch(ctx context.Context, restaurantID string, branchNumber int) ([]models.MenuSection, error) {
	var out []models.MenuSection
	err := c.do(ctx, call{
		op:     "get branch menu",
		method: http.MethodGet,
		path:   []string{"api", "restaurants", restaurantID, "menu"},
		query:  url.Values{"branch": {strconv.Itoa(branchNumber)}},
	}, &out)
	return out, err
}

// Branches lists the pickup branches of a restaurant.
func (c *Client) Branches(ctx context.Context, restaurantID string) ([]models.Branch, error) {
	var out []models.Branch
	err := c.do(ctx, call{
		op:     "list branches",
		method: http.MethodGet,
		path:   []string{"api", "restaurants", restaurantID, "branches"},
	}, &out)
	return out, err
}
