package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	paymentcodedomain "github.com/interrail/forwarding/internal/paymentcode/domain"
)

type allocateRequest struct {
	StartRange  string `json:"start_range" binding:"required"`
	EndRange    string `json:"end_range" binding:"required"`
	TerritoryID int64  `json:"territory_id" binding:"required"`
}

// AllocateCodes issues a contiguous block of payment codes against the
// application in the path. Success carries no body; every validation
// failure comes back as 400 with a descriptive message.
func (s *Server) AllocateCodes(c *gin.Context) {
	applicationID, err := parseSnowflake(c.Param("id"))
	if err != nil {
		AbortWithError(c, paymentcodedomain.ErrApplicationNotFound)
		return
	}

	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	_, err = s.allocator.Allocate(c.Request.Context(), paymentcodedomain.AllocateRequest{
		ApplicationID: applicationID,
		StartRange:    req.StartRange,
		EndRange:      req.EndRange,
		TerritoryID:   snowflake.ID(req.TerritoryID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}
