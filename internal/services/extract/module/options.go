package module

import (
	"signalgate/internal/adapters/analysis"
	"signalgate/internal/platform/config"
	"signalgate/internal/services/extract/service"
)

// Options configures the extract module
type Options struct {
	Pipeline service.Config
	Analysis analysis.Config
}

// FromConfig reads EXTRACT_* and ANALYSIS_* keys
func FromConfig(cfg config.Conf) Options {
	return Options{
		Pipeline: service.FromConfig(cfg),
		Analysis: analysis.FromEnv(cfg),
	}
}
