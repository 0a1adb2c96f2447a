package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"buckler/internal/app/commands"
	"buckler/internal/app/dto"
	availabilityapp "buckler/internal/app/handlers/availability"
	"buckler/internal/app/queries"
	"buckler/internal/domain/shared/daterange"
)

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type entryRequest struct {
	Date              string  `json:"date" binding:"required"`
	IsAvailable       bool    `json:"is_available"`
	PriceOverride     *string `json:"price_override"`
	MinNightsOverride *int    `json:"min_nights_override"`
	AvailableSpots    *int    `json:"available_spots"`
}

type reconcileRequest struct {
	Entries []entryRequest `json:"entries" binding:"required,dive"`
}

// Calendar takes optional from/to days (YYYY-MM-DD).
func (h AvailabilityHandler) Calendar(c *gin.Context) {
	from, ok := optionalDay(c, "from")
	if !ok {
		return
	}
	to, ok := optionalDay(c, "to")
	if !ok {
		return
	}
	query := availabilityapp.GetCalendarQuery{TargetID: c.Param("id"), From: from, To: to}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Reconcile(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	var req reconcileRequest
	if !bindJSON(c, &req) {
		return
	}
	entries := make([]availabilityapp.EntryInput, 0, len(req.Entries))
	for _, e := range req.Entries {
		day, err := daterange.ParseDay(e.Date)
		if err != nil {
			writeError(c, err)
			return
		}
		entries = append(entries, availabilityapp.EntryInput{
			Date:              day,
			IsAvailable:       e.IsAvailable,
			PriceOverride:     e.PriceOverride,
			MinNightsOverride: e.MinNightsOverride,
			AvailableSpots:    e.AvailableSpots,
		})
	}
	cmd := availabilityapp.ReconcileAvailabilityCommand{TargetID: c.Param("id"), ActorID: actorID, Entries: entries}
	result, err := commands.Dispatch[availabilityapp.ReconcileAvailabilityCommand, *dto.ReconcileResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func optionalDay(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	day, err := daterange.ParseDay(raw)
	if err != nil {
		writeError(c, err)
		return time.Time{}, false
	}
	return day, true
}

var _ AvailabilityHTTP = AvailabilityHandler{}
