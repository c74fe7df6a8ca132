package haccp

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/dukerupert/backoffice/internal/model"
	"github.com/jaswdr/faker"
)

var mockEquipment = []struct {
	kind     string
	location string
	min, max float64
}{
	{"cold_room", "Réserve", 0, 4},
	{"fridge", "Cuisine", 0, 4},
	{"fridge", "Pâtisserie", 2, 6},
	{"freezer", "Réserve", -25, -18},
	{"hot_holding", "Passe", 63, 90},
}

// MockDashboard builds a deterministic dataset for backends that do not
// serve the HACCP endpoints. Readings cover the 24 hours before now.
func MockDashboard(seed int64, now time.Time) *Dashboard {
	fake := faker.NewWithSeed(rand.NewSource(seed))
	now = now.UTC().Truncate(time.Hour)

	d := &Dashboard{Mock: true, FetchedAt: now}

	for i, m := range mockEquipment {
		d.Equipment = append(d.Equipment, model.Equipment{
			ID:       model.ID(fmt.Sprintf("mock-%d", i+1)),
			Name:     fmt.Sprintf("%s %s", labels[m.kind], m.location),
			Kind:     m.kind,
			Location: m.location,
			MinTemp:  m.min,
			MaxTemp:  m.max,
			Status:   "ok",
		})
	}

	staff := make([]string, 3)
	for i := range staff {
		staff[i] = fake.Person().FirstName()
	}

	for h := 24; h > 0; h -= 4 {
		at := now.Add(-time.Duration(h) * time.Hour)
		for _, e := range d.Equipment {
			// Readings drift up to 1.5 degrees past either bound.
			spread := (e.MaxTemp - e.MinTemp) + 3
			value := e.MinTemp - 1.5 + spread*float64(fake.IntBetween(0, 100))/100
			d.Readings = append(d.Readings, model.TemperatureReading{
				EquipmentID: e.ID,
				Value:       round1(value),
				RecordedAt:  at,
				RecordedBy:  fake.RandomStringElement(staff),
			})
		}
	}

	for i, x := range OutOfRange(d.Readings, d.Equipment) {
		id := x.Equipment.ID
		d.Alerts = append(d.Alerts, model.Alert{
			ID:          model.ID(fmt.Sprintf("mock-alert-%d", i+1)),
			EquipmentID: &id,
			Severity:    severity(x.Delta),
			Message:     fmt.Sprintf("%s: %.1f°C hors plage (%.0f/%.0f)", x.Equipment.Name, x.Reading.Value, x.Equipment.MinTemp, x.Equipment.MaxTemp),
			RaisedAt:    x.Reading.RecordedAt,
			Resolved:    x.Reading.RecordedAt.Before(now.Add(-12 * time.Hour)),
		})
	}

	return d
}

var labels = map[string]string{
	"cold_room":   "Chambre froide",
	"fridge":      "Frigo",
	"freezer":     "Congélateur",
	"hot_holding": "Maintien au chaud",
}

func severity(delta float64) string {
	if delta < 0 {
		delta = -delta
	}
	if delta >= 1 {
		return "critical"
	}
	return "warning"
}
