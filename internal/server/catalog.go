package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.catalog})
}

func (s *Server) ListCatalogRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.catalog.RoomNames()})
}

type taxRatesResponse struct {
	Rates []float64 `json:"rates"`
}

func (s *Server) ListTaxRates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": taxRatesResponse{Rates: s.devisConfig.Get().StandardTaxRates}})
}
