package handlers

import (
	"net/http"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError writes the public form of err. Server-side failures are logged with
// their full chain since the client only sees the generic message.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"path":      c.FullPath(),
			"requestId": c.GetString("requestId"),
		}).Error("request failed")
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}
