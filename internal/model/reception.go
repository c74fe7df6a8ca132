package model

import "time"

type ReceptionStatus string

const (
	ReceptionPending    ReceptionStatus = "pending"
	ReceptionInProgress ReceptionStatus = "in_progress"
	ReceptionCompleted  ReceptionStatus = "completed"
)

type Reception struct {
	ID             ID               `json:"id"`
	PurchaseID     *ID              `json:"purchase_id,omitempty"`
	DeliveryNumber string           `json:"delivery_number"`
	CarrierName    string           `json:"carrier_name,omitempty"`
	Status         ReceptionStatus  `json:"status"`
	ReceivedAt     *time.Time       `json:"received_at,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	Items          []ReceptionItem  `json:"items,omitempty"`
	Photos         []ReceptionPhoto `json:"photos,omitempty"`
	CreatedAt      *time.Time       `json:"created_at,omitempty"`
}

// ReceptionItem is one delivered line. DLC and DLU are kept as the backend
// sends them.
type ReceptionItem struct {
	ID                 ID       `json:"id"`
	ProductID          ID       `json:"product_id"`
	ProductSKU         string   `json:"product_sku,omitempty"`
	ProductName        string   `json:"product_name,omitempty"`
	QuantityExpected   float64  `json:"quantity_expected"`
	QuantityReceived   *float64 `json:"quantity_received"`
	BatchNumber        string   `json:"batch_number,omitempty"`
	DLC                string   `json:"dlc,omitempty"`
	DLU                string   `json:"dlu,omitempty"`
	Temperature        *float64 `json:"temperature,omitempty"`
	IsValidated        bool     `json:"is_validated"`
	QualityCheckPassed *bool    `json:"quality_check_passed,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

type ReceptionPhoto struct {
	ID         ID         `json:"id"`
	URL        string     `json:"url"`
	Filename   string     `json:"filename,omitempty"`
	UploadedAt *time.Time `json:"uploaded_at,omitempty"`
}

// BatchCheck is the backend's batch-consistency report for one SKU.
type BatchCheck struct {
	SKU          string       `json:"sku"`
	BatchCount   int          `json:"batch_count"`
	Batches      []BatchEntry `json:"batches,omitempty"`
	Errors       []string     `json:"errors,omitempty"`
	IsConsistent bool         `json:"is_consistent"`
}

type BatchEntry struct {
	BatchNumber string  `json:"batch_number"`
	Quantity    float64 `json:"quantity"`
	DLC         string  `json:"dlc,omitempty"`
}
