package model

import "time"

type Equipment struct {
	ID       ID      `json:"id"`
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Location string  `json:"location,omitempty"`
	MinTemp  float64 `json:"min_temp"`
	MaxTemp  float64 `json:"max_temp"`
	Status   string  `json:"status,omitempty"`
}

type TemperatureReading struct {
	EquipmentID ID        `json:"equipment_id"`
	Value       float64   `json:"value"`
	RecordedAt  time.Time `json:"recorded_at"`
	RecordedBy  string    `json:"recorded_by,omitempty"`
}

type Alert struct {
	ID          ID        `json:"id"`
	EquipmentID *ID       `json:"equipment_id,omitempty"`
	Severity    string    `json:"severity"`
	Message     string    `json:"message"`
	RaisedAt    time.Time `json:"raised_at"`
	Resolved    bool      `json:"resolved"`
}
