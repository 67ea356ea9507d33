package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	counterpartydomain "github.com/interrail/forwarding/internal/counterparty/domain"
)

type counterpartyRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) ListCounterparties(c *gin.Context) {
	counterparties, err := s.counterpartySvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, counterparties)
}

func (s *Server) CreateCounterparty(c *gin.Context) {
	var req counterpartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, counterpartydomain.ErrInvalidName)
		return
	}

	counterparty, err := s.counterpartySvc.Create(c.Request.Context(), counterpartydomain.CreateCounterpartyRequest{
		Name: req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, counterparty)
}

func (s *Server) GetCounterparty(c *gin.Context) {
	counterparty, err := s.counterpartySvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, counterparty)
}

func (s *Server) UpdateCounterparty(c *gin.Context) {
	var req counterpartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, counterpartydomain.ErrInvalidName)
		return
	}

	counterparty, err := s.counterpartySvc.Update(c.Request.Context(), c.Param("id"), counterpartydomain.UpdateCounterpartyRequest{
		Name: &req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, counterparty)
}

func (s *Server) DeleteCounterparty(c *gin.Context) {
	if err := s.counterpartySvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
