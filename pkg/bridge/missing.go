package bridge

import "log/slog"

// LogMissingCapability returns a reporter that logs a warning naming the
// plugin and where to get it.
func LogMissingCapability(logger *slog.Logger) MissingCapabilityReporter {
	return func(name, source string) {
		logger.Warn("Native capability not available. Install the plugin to enable it.",
			"plugin", name,
			"source", source,
		)
	}
}
