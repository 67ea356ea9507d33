package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	territorydomain "github.com/interrail/forwarding/internal/territory/domain"
)

type territoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) ListTerritories(c *gin.Context) {
	territories, err := s.territorySvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, territories)
}

func (s *Server) CreateTerritory(c *gin.Context) {
	var req territoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, territorydomain.ErrInvalidName)
		return
	}

	territory, err := s.territorySvc.Create(c.Request.Context(), territorydomain.CreateTerritoryRequest{
		Name: req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, territory)
}

func (s *Server) GetTerritory(c *gin.Context) {
	territory, err := s.territorySvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, territory)
}

func (s *Server) UpdateTerritory(c *gin.Context) {
	var req territoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, territorydomain.ErrInvalidName)
		return
	}

	territory, err := s.territorySvc.Update(c.Request.Context(), c.Param("id"), territorydomain.UpdateTerritoryRequest{
		Name: &req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, territory)
}

func (s *Server) DeleteTerritory(c *gin.Context) {
	if err := s.territorySvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
