package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/curbcycle/curbcycle/internal/api/models"
	"github.com/curbcycle/curbcycle/internal/api/response"
	"github.com/curbcycle/curbcycle/internal/pickup"
	"github.com/curbcycle/curbcycle/internal/schedule"
)

// dateParamLayout is the expected format for date query parameters.
const dateParamLayout = "2006-01-02"

// PickupHandler serves the pickup resolution endpoints for one household.
type PickupHandler struct {
	service *pickup.Service
	logger  zerolog.Logger
	now     func() time.Time
}

// NewPickupHandler creates a new PickupHandler.
func NewPickupHandler(service *pickup.Service, logger zerolog.Logger) *PickupHandler {
	return &PickupHandler{
		service: service,
		logger:  logger.With().Str("component", "pickup_handler").Logger(),
		now:     time.Now,
	}
}

// GetSchedule handles GET /v1/schedule.
func (h *PickupHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	cfg := h.service.Config()

	resp := models.Schedule{
		ZipCode:    cfg.ZipCode,
		ServiceDay: cfg.ServiceDay,
		County:     cfg.Region.County,
		State:      cfg.Region.State,
	}

	if snap, err := h.service.Snapshot(); err == nil {
		fetchedAt := snap.FetchedAt
		resp.LastRefresh = &fetchedAt
		if snap.Alert != nil {
			alert := models.NewDisruption(*snap.Alert)
			resp.Alert = &alert
		}
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// GetNextPickup handles GET /v1/pickups/next. The optional from query
// parameter defaults to today.
func (h *PickupHandler) GetNextPickup(w http.ResponseWriter, r *http.Request) {
	from := h.now()
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(dateParamLayout, raw)
		if err != nil {
			response.BadRequest(w, r, "from must be a date in YYYY-MM-DD format")
			return
		}
		from = parsed
	}

	resolved, err := h.service.NextPickup(from)
	if err != nil {
		h.writeResolveError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewNextPickup(resolved, h.service.Config(), from))
}

// GetCalendar handles GET /v1/pickups/calendar. start defaults to today and
// end to the enumeration horizon.
func (h *PickupHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse(dateParamLayout, raw)
		if err != nil {
			response.BadRequest(w, r, "start must be a date in YYYY-MM-DD format")
			return
		}
		start = parsed
	}

	end := schedule.Midnight(start).Add(pickup.CalendarHorizon)
	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := time.Parse(dateParamLayout, raw)
		if err != nil {
			response.BadRequest(w, r, "end must be a date in YYYY-MM-DD format")
			return
		}
		end = parsed
	}

	if end.Before(start) {
		response.BadRequest(w, r, "end must not be before start")
		return
	}

	pickups, err := h.service.Calendar(start, end)
	if err != nil {
		h.writeResolveError(w, r, err)
		return
	}

	cfg := h.service.Config()
	events := make([]models.PickupEvent, 0, len(pickups))
	for _, p := range pickups {
		events = append(events, models.NewPickupEvent(p, cfg))
	}

	response.JSON(w, r, http.StatusOK, models.Calendar{Events: events})
}

// ForceRefresh handles POST /v1/refresh. A refresh already in flight is
// joined rather than duplicated.
func (h *PickupHandler) ForceRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("forced refresh failed")
		response.ServiceUnavailable(w, r, "schedule refresh failed")
		return
	}

	snap, err := h.service.Snapshot()
	if err != nil {
		response.ServiceUnavailable(w, r, "no schedule snapshot available")
		return
	}

	response.JSON(w, r, http.StatusOK, models.RefreshResult{
		Status:      "refreshed",
		RefreshedAt: snap.FetchedAt,
	})
}

// writeResolveError maps service errors to problem responses.
func (h *PickupHandler) writeResolveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pickup.ErrNoSnapshot):
		response.ServiceUnavailable(w, r, "schedule data has not been fetched yet")
	case errors.Is(err, schedule.ErrInvalidServiceDay):
		h.logger.Error().Err(err).Msg("misconfigured service day")
		response.InternalError(w, r, "service day is misconfigured")
	default:
		h.logger.Error().Err(err).Msg("pickup resolution failed")
		response.InternalError(w, r, "pickup resolution failed")
	}
}
