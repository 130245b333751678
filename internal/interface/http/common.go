package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/gigboard/pkg/apperr"
	"github.com/oksasatya/gigboard/pkg/helpers"
)

// callerID is the authenticated identity set by middleware.Auth.
func callerID(c *gin.Context) string { return c.GetString("userID") }

// logFailure logs server-side failures. Caller mistakes are not logged.
func logFailure(logger *logrus.Logger, c *gin.Context, err error, op string) {
	switch apperr.CodeOf(err) {
	case apperr.CodeUnavailable, apperr.CodeUnknown:
		helpers.LogError(logger, "request failed", err, logrus.Fields{
			"op":         op,
			"request_id": c.GetString("request_id"),
			"user_id":    callerID(c),
		})
	}
}
