package pixel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
)

const (
	defaultAnalyticsWindow = 30 * 24 * time.Hour
	topSourcesLimit        = 10
)

type pixelRepository interface {
	Insert(ctx context.Context, event *models.PixelEvent) error
	CountByEvent(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]EventCountRow, error)
	CountByDay(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]DailyCountRow, error)
	TopSources(ctx context.Context, storeID uuid.UUID, from, to time.Time, limit int) ([]SourceCountRow, error)
}

// TrackInput is one event from the storefront pixel.
type TrackInput struct {
	StoreID     uuid.UUID
	Event       string
	URL         string
	Device      string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
}

// AnalyticsDTO aggregates a store's traffic for the dashboard.
type AnalyticsDTO struct {
	From       time.Time        `json:"from"`
	To         time.Time        `json:"to"`
	ByEvent    map[string]int64 `json:"by_event"`
	Daily      []DailyPoint     `json:"daily"`
	TopSources []SourcePoint    `json:"top_sources"`
}

// DailyPoint is one day of traffic.
type DailyPoint struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// SourcePoint is one UTM source's traffic.
type SourcePoint struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// Service records storefront traffic and answers funnel queries.
type Service interface {
	Track(ctx context.Context, input TrackInput) error
	Analytics(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*AnalyticsDTO, error)
}

type service struct {
	repo pixelRepository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds a pixel service with the provided repository.
func NewService(repo pixelRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pixel repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// Track appends one event. Failures are logged, never surfaced: the
// tracked page must not break because our insert did.
func (s *service) Track(ctx context.Context, input TrackInput) error {
	event := strings.TrimSpace(input.Event)
	if event == "" || input.StoreID == uuid.Nil {
		return nil
	}

	row := &models.PixelEvent{
		StoreID:     input.StoreID,
		Event:       event,
		URL:         optional(input.URL),
		Device:      optional(input.Device),
		UTMSource:   optional(input.UTMSource),
		UTMMedium:   optional(input.UTMMedium),
		UTMCampaign: optional(input.UTMCampaign),
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		s.logg.Error(ctx, "insert pixel event", err)
	}
	return nil
}

func (s *service) Analytics(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*AnalyticsDTO, error) {
	if to.IsZero() {
		to = s.now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultAnalyticsWindow)
	}
	if !from.Before(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}

	byEvent, err := s.repo.CountByEvent(ctx, storeID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count events")
	}
	daily, err := s.repo.CountByDay(ctx, storeID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count daily")
	}
	sources, err := s.repo.TopSources(ctx, storeID, from, to, topSourcesLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "top sources")
	}

	dto := &AnalyticsDTO{
		From:    from,
		To:      to,
		ByEvent: make(map[string]int64, len(byEvent)),
	}
	for _, row := range byEvent {
		dto.ByEvent[row.Event] = row.Count
	}
	for _, row := range daily {
		dto.Daily = append(dto.Daily, DailyPoint{
			Day:   row.Day.Format("2006-01-02"),
			Count: row.Count,
		})
	}
	for _, row := range sources {
		dto.TopSources = append(dto.TopSources, SourcePoint{
			Source: row.Source,
			Count:  row.Count,
		})
	}
	return dto, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
