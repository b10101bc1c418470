// README: Search service loads bookable trips, enriches them with driver facts and ranks them.
package matching

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"openseat/internal/apperr"
	"openseat/internal/logger"
	"openseat/internal/modules/trip"
	"openseat/internal/types"
)

// TripSource is the slice of the trip catalog that search reads.
type TripSource interface {
	ListActive(ctx context.Context, date *time.Time) ([]*trip.Trip, error)
	DriverProfile(ctx context.Context, driverID types.ID) (trip.DriverProfile, error)
	Vehicle(ctx context.Context, id types.ID) (*trip.Vehicle, error)
}

type Service struct {
	trips  TripSource
	ranker *Ranker
	log    *slog.Logger
}

func NewService(trips TripSource, ranker *Ranker, log *slog.Logger) *Service {
	return &Service{trips: trips, ranker: ranker, log: logger.OrDiscard(log)}
}

type SearchCommand struct {
	From          string
	To            string
	Date          *time.Time
	PreferredTime string
	TimeRange     string
}

func (s *Service) Search(ctx context.Context, cmd SearchCommand) ([]Match, error) {
	if cmd.From == "" || cmd.To == "" {
		return nil, apperr.BadRequest("from and to locations are required")
	}
	var window *timeWindow
	if cmd.TimeRange != "" {
		w, err := parseTimeWindow(cmd.TimeRange)
		if err != nil {
			return nil, err
		}
		window = &w
	}

	trips, err := s.trips.ListActive(ctx, cmd.Date)
	if err != nil {
		return nil, err
	}

	profiles := make(map[types.ID]trip.DriverProfile)
	candidates := make([]Candidate, 0, len(trips))
	for _, t := range trips {
		if window != nil && !window.contains(t.DepartureTime) {
			continue
		}
		p, ok := profiles[t.DriverID]
		if !ok {
			if p, err = s.trips.DriverProfile(ctx, t.DriverID); err != nil {
				return nil, err
			}
			profiles[t.DriverID] = p
		}
		verified := false
		if v, err := s.trips.Vehicle(ctx, t.VehicleID); err == nil {
			verified = v.Verified
		}
		candidates = append(candidates, Candidate{Trip: t, DriverRating: p.Rating, Verified: verified})
	}

	matches := s.ranker.Rank(Query{
		From:          cmd.From,
		To:            cmd.To,
		PreferredTime: cmd.PreferredTime,
		TimeRange:     cmd.TimeRange,
	}, candidates)

	logger.Action(s.log, "search_trips").Debug("search ranked",
		"from", cmd.From, "to", cmd.To, "candidates", len(candidates), "returned", len(matches))
	return matches, nil
}

type timeWindow struct {
	start, end int
}

func parseTimeWindow(v string) (timeWindow, error) {
	var w timeWindow
	start, end, ok := strings.Cut(v, "-")
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if !ok {
		return w, apperr.BadRequest("time range must look like HH:MM-HH:MM")
	}
	var err error
	if w.start, err = trip.MinutesOfDay(start); err != nil {
		return w, apperr.BadRequest("time range must look like HH:MM-HH:MM")
	}
	if w.end, err = trip.MinutesOfDay(end); err != nil {
		return w, apperr.BadRequest("time range must look like HH:MM-HH:MM")
	}
	return w, nil
}

func (w timeWindow) contains(departure string) bool {
	m, err := trip.MinutesOfDay(departure)
	if err != nil {
		return false
	}
	return m >= w.start && m <= w.end
}
