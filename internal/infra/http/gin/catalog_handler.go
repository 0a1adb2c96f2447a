package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"buckler/internal/app/commands"
	"buckler/internal/app/dto"
	catalogapp "buckler/internal/app/handlers/catalog"
	"buckler/internal/app/queries"
)

type CatalogHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type listingRequest struct {
	Title              string  `json:"title"`
	GuestsLimit        int     `json:"guests_limit"`
	MinNights          int     `json:"min_nights"`
	MaxNights          int     `json:"max_nights"`
	Currency           string  `json:"currency"`
	NightlyRate        string  `json:"nightly_rate"`
	CleaningFee        *string `json:"cleaning_fee"`
	ServiceFee         *string `json:"service_fee"`
	SecurityDeposit    *string `json:"security_deposit"`
	CancellationPolicy string  `json:"cancellation_policy"`
	InstantBook        bool    `json:"instant_book"`
}

type tourRequest struct {
	Title               string `json:"title"`
	MaxParticipants     int    `json:"max_participants"`
	Currency            string `json:"currency"`
	PricePerParticipant string `json:"price_per_participant"`
	DurationDays        int    `json:"duration_days"`
	CancellationPolicy  string `json:"cancellation_policy"`
	InstantBook         bool   `json:"instant_book"`
}

func (h CatalogHandler) Get(c *gin.Context) {
	query := catalogapp.GetTargetQuery{Vertical: c.Query("vertical"), TargetID: c.Param("id")}
	result, err := queries.Ask[catalogapp.GetTargetQuery, catalogapp.TargetView](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CatalogHandler) UpsertListing(c *gin.Context) {
	hostID, ok := requireActor(c)
	if !ok {
		return
	}
	var req listingRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := catalogapp.UpsertListingCommand{
		ListingID:          c.Param("id"),
		HostID:             hostID,
		Title:              req.Title,
		GuestsLimit:        req.GuestsLimit,
		MinNights:          req.MinNights,
		MaxNights:          req.MaxNights,
		Currency:           req.Currency,
		NightlyRate:        req.NightlyRate,
		CleaningFee:        req.CleaningFee,
		ServiceFee:         req.ServiceFee,
		SecurityDeposit:    req.SecurityDeposit,
		CancellationPolicy: req.CancellationPolicy,
		InstantBook:        req.InstantBook,
	}
	result, err := commands.Dispatch[catalogapp.UpsertListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CatalogHandler) UpsertTour(c *gin.Context) {
	operatorID, ok := requireActor(c)
	if !ok {
		return
	}
	var req tourRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := catalogapp.UpsertTourCommand{
		TourID:              c.Param("id"),
		OperatorID:          operatorID,
		Title:               req.Title,
		MaxParticipants:     req.MaxParticipants,
		Currency:            req.Currency,
		PricePerParticipant: req.PricePerParticipant,
		DurationDays:        req.DurationDays,
		CancellationPolicy:  req.CancellationPolicy,
		InstantBook:         req.InstantBook,
	}
	result, err := commands.Dispatch[catalogapp.UpsertTourCommand, *dto.Tour](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CatalogHTTP = CatalogHandler{}
