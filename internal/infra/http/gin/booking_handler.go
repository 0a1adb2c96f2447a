package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"buckler/internal/app/commands"
	"buckler/internal/app/dto"
	bookingapp "buckler/internal/app/handlers/booking"
	"buckler/internal/app/queries"
	"buckler/internal/domain/shared/daterange"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
	Vertical string `json:"vertical"`
	TargetID string `json:"target_id" binding:"required"`
	CheckIn  string `json:"check_in" binding:"required"`
	CheckOut string `json:"check_out"`
	Guests   int    `json:"guests"`
}

type transitionRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Create(c *gin.Context) {
	guestID, ok := requireActor(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	checkIn, err := daterange.ParseDay(req.CheckIn)
	if err != nil {
		writeError(c, err)
		return
	}
	var checkOut time.Time
	if req.CheckOut != "" {
		if checkOut, err = daterange.ParseDay(req.CheckOut); err != nil {
			writeError(c, err)
			return
		}
	}
	cmd := bookingapp.RequestBookingCommand{
		Vertical:   req.Vertical,
		TargetID:   req.TargetID,
		GuestID:    guestID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     req.Guests,
		RequestKey: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	query := bookingapp.GetBookingQuery{BookingID: c.Param("id"), ActorID: actorID}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.Booking](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Approve(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	transition(c, h.Commands, bookingapp.ApproveBookingCommand{BookingID: c.Param("id"), ActorID: actorID})
}

func (h BookingHandler) Reject(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	var req transitionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	transition(c, h.Commands, bookingapp.RejectBookingCommand{BookingID: c.Param("id"), ActorID: actorID, Reason: req.Reason})
}

func (h BookingHandler) Cancel(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	var req transitionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	transition(c, h.Commands, bookingapp.CancelBookingCommand{BookingID: c.Param("id"), ActorID: actorID, Reason: req.Reason})
}

func (h BookingHandler) Complete(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	transition(c, h.Commands, bookingapp.CompleteBookingCommand{BookingID: c.Param("id"), ActorID: actorID})
}

func transition[C commands.Command](c *gin.Context, bus commands.Bus, cmd C) {
	result, err := commands.Dispatch[C, *dto.Booking](c.Request.Context(), bus, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	guestID, ok := requireActor(c)
	if !ok {
		return
	}
	query := bookingapp.ListGuestBookingsQuery{GuestID: guestID, Status: c.Query("status")}
	result, err := queries.Ask[bookingapp.ListGuestBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListProvider(c *gin.Context) {
	providerID, ok := requireActor(c)
	if !ok {
		return
	}
	query := bookingapp.ListProviderBookingsQuery{
		ProviderID: providerID,
		Vertical:   c.Query("vertical"),
		Status:     c.Query("status"),
	}
	result, err := queries.Ask[bookingapp.ListProviderBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
