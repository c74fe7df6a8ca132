package reception

import (
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/validation"
)

// ItemValidation is the operator's check of one delivered line.
type ItemValidation struct {
	QuantityReceived   *float64 `json:"quantity_received" validate:"required,gt=0"`
	BatchNumber        string   `json:"batch_number,omitempty"`
	DLC                string   `json:"dlc,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DLU                string   `json:"dlu,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Temperature        *float64 `json:"temperature,omitempty" validate:"omitempty,finite"`
	QualityCheckPassed bool     `json:"quality_check_passed"`
	Notes              string   `json:"notes,omitempty"`
}

// Validate runs the checks that must pass before anything is sent:
// quantity_received present and > 0, a finite temperature, and YYYY-MM-DD dates.
func (v ItemValidation) Validate() error {
	return validation.Struct(v)
}

// Summary counts where a reception's lines stand.
type Summary struct {
	Total         int `json:"total"`
	Validated     int `json:"validated"`
	Pending       int `json:"pending"`
	QualityFailed int `json:"quality_failed"`
	Discrepancies int `json:"discrepancies"`
}

// Complete reports whether every line has been validated.
func (s Summary) Complete() bool {
	return s.Total > 0 && s.Pending == 0
}

// Progress summarises items for display. A discrepancy is a validated line
// whose received quantity differs from the expected one.
func Progress(items []model.ReceptionItem) Summary {
	s := Summary{Total: len(items)}
	for _, it := range items {
		if !it.IsValidated {
			s.Pending++
			continue
		}
		s.Validated++
		if it.QualityCheckPassed != nil && !*it.QualityCheckPassed {
			s.QualityFailed++
		}
		if it.QuantityReceived != nil && *it.QuantityReceived != it.QuantityExpected {
			s.Discrepancies++
		}
	}
	return s
}
