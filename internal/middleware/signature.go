package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/chachabrian/hotelbook-backend/internal/webhook"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	maxWebhookBody = 1 << 20
	// RawBodyKey holds the verified request body on the gin context.
	RawBodyKey = "rawBody"
)

// WebhookSignature rejects deliveries whose signature does not verify. The raw body
// is kept on the context and restored on the request for the handler.
func WebhookSignature(v webhook.Verifier, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
			return
		}
		if len(body) > maxWebhookBody {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}

		if err := v.Verify(c.Request.Context(), c.Request.Header, body); err != nil {
			entry := log.WithError(err).WithField("path", c.FullPath())
			if apperr.HTTPStatus(err) == http.StatusUnauthorized {
				entry.Warn("webhook signature rejected")
			} else {
				entry.Error("webhook signature could not be checked")
			}
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
			return
		}

		c.Set(RawBodyKey, body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
