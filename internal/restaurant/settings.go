package restaurant

import (
	"context"
	"fmt"

	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/validation"
	"github.com/mitchellh/mapstructure"
)

// Settings is the typed view of the well-known keys in a restaurant's
// settings document. Unknown keys are kept in Extra.
type Settings struct {
	Currency              string            `mapstructure:"currency"`
	Timezone              string            `mapstructure:"timezone"`
	Language              string            `mapstructure:"language"`
	DefaultVATRate        float64           `mapstructure:"default_vat_rate"`
	OpeningHours          map[string]string `mapstructure:"opening_hours"`
	TemperatureCheckMins  int               `mapstructure:"temperature_check_interval"`
	LowStockThreshold     float64           `mapstructure:"low_stock_threshold"`
	ReceptionAutoComplete bool              `mapstructure:"reception_auto_complete"`
	Extra                 map[string]any    `mapstructure:",remain"`
}

// DecodeSettings maps the raw settings document onto Settings. Scalars sent
// as strings ("20", "true") are converted.
func DecodeSettings(raw map[string]any) (Settings, error) {
	var s Settings
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &s,
	})
	if err != nil {
		return s, fmt.Errorf("settings decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return s, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

func (s *Service) Settings(ctx context.Context, id model.ID) (map[string]any, error) {
	settings := map[string]any{}
	if err := s.api.Get(ctx, itemPath(id)+"/settings", nil, &settings); err != nil {
		return nil, fmt.Errorf("restaurant settings %s: %w", id, err)
	}
	return settings, nil
}

// UpdateSetting writes one key of the settings document and returns the
// document as stored by the backend.
func (s *Service) UpdateSetting(ctx context.Context, id model.ID, key string, value any) (map[string]any, error) {
	if key == "" {
		return nil, validation.Violations{"key": "required"}
	}
	settings := map[string]any{}
	if err := s.api.Patch(ctx, itemPath(id)+"/settings", map[string]any{key: value}, &settings); err != nil {
		return nil, fmt.Errorf("update setting %s: %w", key, err)
	}
	return settings, nil
}
