package config

import (
	"github.com/FerroO2000/filo/internal"
)

// Validator is an utility struct for validating a configuration.
type Validator struct {
	tel *internal.Telemetry

	anomalyCollector *AnomalyCollector
}

// NewValidator returns a new validator.
func NewValidator(tel *internal.Telemetry) *Validator {
	return &Validator{
		tel: tel,

		anomalyCollector: newAnomalyCollector(),
	}
}

// Validate validates the given configuration.
// Every anomaly is logged and the offending field
// is replaced by its fallback value.
func (v *Validator) Validate(config Config) {
	config.Validate(v.anomalyCollector)

	if v.anomalyCollector.empty() {
		return
	}

	for anomaly := range v.anomalyCollector.iter() {
		v.tel.LogWarn("config anomaly",
			"field", anomaly.field, "reason", anomaly.reason,
			"actual", anomaly.actual, "fallback", anomaly.fallback)
	}
}
