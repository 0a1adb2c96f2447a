package catalog

import (
	"context"

	"buckler/internal/app/dto"
	handlersupport "buckler/internal/app/handlers/support"
	"buckler/internal/app/queries"
	"buckler/internal/app/uow"
	domainbooking "buckler/internal/domain/booking"
	"buckler/internal/domain/shared/errs"
)

const getTargetKey = "catalog.target.get"

// GetTargetQuery loads a listing or a tour. An empty Vertical tries both.
type GetTargetQuery struct {
	Vertical string
	TargetID string
}

func (q GetTargetQuery) Key() string { return getTargetKey }

type TargetView struct {
	Vertical string       `json:"vertical"`
	Listing  *dto.Listing `json:"listing,omitempty"`
	Tour     *dto.Tour    `json:"tour,omitempty"`
}

type GetTargetHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetTargetHandler) Handle(ctx context.Context, q GetTargetQuery) (TargetView, error) {
	var vertical domainbooking.Vertical
	if q.Vertical != "" {
		v, err := domainbooking.ParseVertical(q.Vertical)
		if err != nil {
			return TargetView{}, err
		}
		vertical = v
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return TargetView{}, errs.Unavailable(err)
	}
	if cleanup != nil {
		defer cleanup()
	}
	target, err := handlersupport.LoadTarget(execCtx, unit, vertical, q.TargetID)
	if err != nil {
		return TargetView{}, err
	}
	view := TargetView{Vertical: string(target.Vertical)}
	if target.Listing != nil {
		l := dto.MapListing(target.Listing)
		view.Listing = &l
	} else {
		t := dto.MapTour(target.Tour)
		view.Tour = &t
	}
	return view, nil
}

var _ queries.Handler[GetTargetQuery, TargetView] = (*GetTargetHandler)(nil)
