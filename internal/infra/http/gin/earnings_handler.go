package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"buckler/internal/app/dto"
	earningsapp "buckler/internal/app/handlers/earnings"
	"buckler/internal/app/queries"
)

type EarningsHandler struct {
	Queries queries.Bus
}

func (h EarningsHandler) Compute(c *gin.Context) {
	providerID, ok := requireActor(c)
	if !ok {
		return
	}
	query := earningsapp.ComputeEarningsQuery{
		ProviderID: providerID,
		Vertical:   c.Query("vertical"),
		Period:     c.Query("period"),
	}
	result, err := queries.Ask[earningsapp.ComputeEarningsQuery, dto.Earnings](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ EarningsHTTP = EarningsHandler{}
