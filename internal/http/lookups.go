package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookfinder/internal/database/lookups"
	"github.com/mrlokans/bookfinder/internal/entities"
)

// LookupLog reads the lookup audit log.
type LookupLog interface {
	GetEvents(limit, offset int) ([]entities.LookupEvent, int64, error)
	GetStats() (*lookups.Stats, error)
}

type LookupsController struct {
	log LookupLog
}

func NewLookupsController(log LookupLog) *LookupsController {
	return &LookupsController{log: log}
}

// GetLookups handles GET /api/lookups?limit=&offset=
func (lc *LookupsController) GetLookups(c *gin.Context) {
	limit, offset, ok := parsePagination(c, 50, 500)
	if !ok {
		return
	}

	events, total, err := lc.log.GetEvents(limit, offset)
	if err != nil {
		respondInternalError(c, err, "get lookups")
		return
	}
	if events == nil {
		events = []entities.LookupEvent{}
	}

	c.JSON(http.StatusOK, newPaginatedResponse(events, total, limit, offset))
}

// GetStats handles GET /api/lookups/stats
func (lc *LookupsController) GetStats(c *gin.Context) {
	stats, err := lc.log.GetStats()
	if err != nil {
		respondInternalError(c, err, "get lookup stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
