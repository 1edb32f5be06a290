package rest

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zlytics/wallet-insights/internal/api/shared/constants"
	apierrors "github.com/zlytics/wallet-insights/internal/api/shared/errors"
	"github.com/zlytics/wallet-insights/internal/benchmark"
	"github.com/zlytics/wallet-insights/internal/store"
)

// ParseMarketplaceQuery parses listing filters from the query string
func ParseMarketplaceQuery(c *gin.Context) (store.MarketplaceFilter, error) {
	filter := store.MarketplaceFilter{
		Limit:  constants.DEFAULT_MARKETPLACE_LIMIT,
		Offset: constants.DEFAULT_OFFSET,
	}

	if raw := c.Query("min_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, apierrors.NewValidationError(fmt.Sprintf("invalid min_score: %s", raw))
		}
		filter.MinScore = &score
	}

	switch sort := c.Query("sort"); sort {
	case "", "score":
		filter.SortBy = "score"
	case "purchases":
		filter.SortBy = "purchases"
	default:
		return filter, apierrors.NewValidationError(fmt.Sprintf("invalid sort: %s. Must be score or purchases", sort))
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, apierrors.NewValidationError(fmt.Sprintf("invalid limit: %s", raw))
		}
		if limit > constants.MAX_MARKETPLACE_LIMIT {
			limit = constants.MAX_MARKETPLACE_LIMIT
		}
		filter.Limit = limit
	}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, apierrors.NewValidationError(fmt.Sprintf("invalid offset: %s", raw))
		}
		filter.Offset = offset
	}

	return filter, nil
}

// ParseTargetPercentile parses the comparison target, defaulting to the median
func ParseTargetPercentile(c *gin.Context) (benchmark.TargetPercentile, error) {
	raw := c.DefaultQuery("target", string(benchmark.TargetP50))
	target := benchmark.TargetPercentile(raw)
	if !benchmark.IsValidTargetPercentile(target) {
		return "", apierrors.NewValidationError(fmt.Sprintf("invalid target: %s. Must be p25, p50, p75 or p90", raw))
	}
	return target, nil
}
