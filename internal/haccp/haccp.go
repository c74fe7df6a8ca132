// Package haccp builds the food safety dashboard: cold-chain equipment,
// temperature readings and alerts.
package haccp

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/model"
)

const basePath = "/api/v1/haccp"

// MockSeed seeds the fallback dataset so repeated loads look the same.
const MockSeed int64 = 1935

type Tab string

const (
	TabOverview     Tab = "overview"
	TabEquipment    Tab = "equipment"
	TabTemperatures Tab = "temperatures"
	TabAlerts       Tab = "alerts"
)

var Tabs = []Tab{TabOverview, TabEquipment, TabTemperatures, TabAlerts}

// ParseTab returns the tab named s, defaulting to the overview.
func ParseTab(s string) Tab {
	for _, t := range Tabs {
		if string(t) == s {
			return t
		}
	}
	return TabOverview
}

type Dashboard struct {
	Equipment []model.Equipment          `json:"equipment"`
	Readings  []model.TemperatureReading `json:"readings"`
	Alerts    []model.Alert              `json:"alerts"`
	Mock      bool                       `json:"mock"`
	FetchedAt time.Time                  `json:"fetched_at"`
}

// Excursion is a reading outside its equipment's range.
type Excursion struct {
	Reading   model.TemperatureReading `json:"reading"`
	Equipment model.Equipment          `json:"equipment"`
	Delta     float64                  `json:"delta"`
}

// OutOfRange returns the readings outside [MinTemp, MaxTemp] of their
// equipment. Readings for unknown equipment are ignored.
func OutOfRange(readings []model.TemperatureReading, equipment []model.Equipment) []Excursion {
	byID := make(map[model.ID]model.Equipment, len(equipment))
	for _, e := range equipment {
		byID[e.ID] = e
	}

	var out []Excursion
	for _, r := range readings {
		e, ok := byID[r.EquipmentID]
		if !ok {
			continue
		}
		switch {
		case r.Value < e.MinTemp:
			out = append(out, Excursion{Reading: r, Equipment: e, Delta: round1(r.Value - e.MinTemp)})
		case r.Value > e.MaxTemp:
			out = append(out, Excursion{Reading: r, Equipment: e, Delta: round1(r.Value - e.MaxTemp)})
		}
	}
	return out
}

// Compliance is the in-range share of readings, in percent. With no
// readings to judge, compliance is 100.
func Compliance(readings []model.TemperatureReading, equipment []model.Equipment) float64 {
	known := make(map[model.ID]bool, len(equipment))
	for _, e := range equipment {
		known[e.ID] = true
	}
	total := 0
	for _, r := range readings {
		if known[r.EquipmentID] {
			total++
		}
	}
	if total == 0 {
		return 100
	}
	bad := len(OutOfRange(readings, equipment))
	return round1(float64(total-bad) / float64(total) * 100)
}

type Overview struct {
	Equipment  int     `json:"equipment"`
	Readings   int     `json:"readings"`
	Excursions int     `json:"excursions"`
	OpenAlerts int     `json:"open_alerts"`
	Compliance float64 `json:"compliance"`
	Mock       bool    `json:"mock"`
}

func (d *Dashboard) Overview() Overview {
	o := Overview{
		Equipment:  len(d.Equipment),
		Readings:   len(d.Readings),
		Excursions: len(OutOfRange(d.Readings, d.Equipment)),
		Compliance: Compliance(d.Readings, d.Equipment),
		Mock:       d.Mock,
	}
	for _, a := range d.Alerts {
		if !a.Resolved {
			o.OpenAlerts++
		}
	}
	return o
}

// Tab returns the slice of the dashboard rendered by tab t.
func (d *Dashboard) Tab(t Tab) any {
	switch t {
	case TabEquipment:
		return d.Equipment
	case TabTemperatures:
		return d.Readings
	case TabAlerts:
		return d.Alerts
	default:
		return d.Overview()
	}
}

type Service struct {
	api    *api.Client
	logger *slog.Logger
	now    func() time.Time
}

func NewService(c *api.Client, logger *slog.Logger) *Service {
	return &Service{
		api:    c,
		logger: logger.With("component", "haccp"),
		now:    time.Now,
	}
}

// Dashboard loads equipment, readings and alerts. A backend without the
// HACCP endpoints (404) gets the mock dataset instead.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{FetchedAt: s.now().UTC()}

	fetches := []struct {
		path string
		out  any
	}{
		{"/equipment", &d.Equipment},
		{"/temperatures", &d.Readings},
		{"/alerts", &d.Alerts},
	}
	for _, f := range fetches {
		if err := s.api.Get(ctx, basePath+f.path, nil, f.out); err != nil {
			if api.IsNotFound(err) {
				s.logger.Warn("haccp endpoints unavailable, using mock data", "path", f.path)
				return MockDashboard(MockSeed, d.FetchedAt), nil
			}
			return nil, fmt.Errorf("haccp %s: %w", f.path, err)
		}
	}
	return d, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
