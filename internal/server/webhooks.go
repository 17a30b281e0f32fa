package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/tanklab/gasworks/internal/payment/domain"
)

func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.webhooks.Verify(payload, c.Request.Header); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: errorPayload{
			Type:    "invalid_signature",
			Message: "invalid signature",
		}})
		return
	}

	evt, err := s.webhooks.Parse(payload)
	if err != nil {
		// Event shapes we do not act on are acknowledged so the processor
		// stops redelivering them.
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.paymentSvc.ApplyProcessorEvent(c.Request.Context(), evt); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
