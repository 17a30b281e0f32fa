package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListInvoices(c *gin.Context) {
	resp, err := s.invoiceSvc.AllInvoices(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// CreateInvoicePaymentEvents snapshots every outstanding invoice into a
// CREATED payment event, one per user. Typically run at the end of a
// billing period.
func (s *Server) CreateInvoicePaymentEvents(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	invoices, err := s.invoiceSvc.AllInvoices(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ids, err := s.paymentSvc.CreateInvoicePaymentEvents(c.Request.Context(), invoices, principal.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"payment_event_ids": ids}})
}
