package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/chachabrian/hotelbook-backend/internal/providers/inventory"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

func positiveQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", apperr.ErrValidation, key)
	}
	return n, nil
}

// ListHotels returns one page of normalized hotel listings.
func ListHotels(gw inventory.Gateway, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := positiveQuery(c, "page", defaultPage)
		if err != nil {
			respondError(c, log, err)
			return
		}
		limit, err := positiveQuery(c, "limit", defaultLimit)
		if err != nil {
			respondError(c, log, err)
			return
		}

		result, err := gw.ListHotels(c.Request.Context(), page, limit)
		if err != nil {
			if errors.Is(err, apperr.ErrUnavailable) {
				log.WithError(err).Warn("inventory provider unavailable")
			}
			respondError(c, log, err)
			return
		}

		c.JSON(200, gin.H{
			"data":  result.Items,
			"total": result.Total,
			"page":  page,
			"limit": limit,
		})
	}
}
