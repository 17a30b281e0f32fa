package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	filleventdomain "github.com/tanklab/gasworks/internal/fillevent/domain"
)

type createFillEventRequest struct {
	CylinderSetID        string                        `json:"cylinder_set_id"`
	FilledAir            bool                          `json:"filled_air"`
	StorageCylinderUsage []storageCylinderUsageRequest `json:"storage_cylinder_usage"`
	GasMixtureLabel      string                        `json:"gas_mixture_label"`
	Description          string                        `json:"description"`
	QuotedPriceCents     int64                         `json:"quoted_price_cents"`
}

type storageCylinderUsageRequest struct {
	StorageCylinderID string  `json:"storage_cylinder_id"`
	StartPressureBar  float64 `json:"start_pressure_bar"`
	EndPressureBar    float64 `json:"end_pressure_bar"`
}

func (s *Server) CreateFillEvent(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createFillEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	setID, err := parseID(req.CylinderSetID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	usage := make([]filleventdomain.StorageCylinderUsage, 0, len(req.StorageCylinderUsage))
	for _, u := range req.StorageCylinderUsage {
		cylID, err := parseID(u.StorageCylinderID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		usage = append(usage, filleventdomain.StorageCylinderUsage{
			StorageCylinderID: cylID,
			StartPressureBar:  u.StartPressureBar,
			EndPressureBar:    u.EndPressureBar,
		})
	}

	resp, err := s.fillSvc.Create(c.Request.Context(), filleventdomain.CreateRequest{
		UserID:               principal.UserID,
		CylinderSetID:        setID,
		FilledAir:            req.FilledAir,
		StorageCylinderUsage: usage,
		GasMixtureLabel:      req.GasMixtureLabel,
		Description:          req.Description,
		QuotedPriceCents:     req.QuotedPriceCents,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListFillEvents(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.fillSvc.ListByUser(c.Request.Context(), principal.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListUnpaidFillEvents(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.invoiceSvc.UnpaidFillEvents(c.Request.Context(), principal.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
