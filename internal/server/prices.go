package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	pricingdomain "github.com/tanklab/gasworks/internal/pricing/domain"
)

type createPriceRequest struct {
	GasID      string     `json:"gas_id"`
	PriceCents int64      `json:"price_cents"`
	ActiveFrom time.Time  `json:"active_from"`
	ActiveTo   *time.Time `json:"active_to,omitempty"`
}

func (s *Server) CreatePrice(c *gin.Context) {
	var req createPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	gasID, err := snowflake.ParseString(strings.TrimSpace(req.GasID))
	if err != nil {
		AbortWithError(c, pricingdomain.ErrInvalidGas)
		return
	}

	resp, err := s.pricingSvc.CreatePriceVersion(c.Request.Context(), pricingdomain.CreateRequest{
		GasID:      gasID,
		PriceCents: req.PriceCents,
		ActiveFrom: req.ActiveFrom,
		ActiveTo:   req.ActiveTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPrices(c *gin.Context) {
	gasID, err := snowflake.ParseString(strings.TrimSpace(c.Query("gas_id")))
	if err != nil {
		AbortWithError(c, pricingdomain.ErrInvalidGas)
		return
	}

	resp, err := s.pricingSvc.ListPrices(c.Request.Context(), gasID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListGases(c *gin.Context) {
	resp, err := s.gasRepo.List(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
