package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; anything touching
// the audio devices or the open session requires a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// WakeChanged is true when the wake word or its enforcement changed.
	WakeChanged bool
	NewWake     WakeConfig

	// InstructionsChanged is true when the response persona changed. Applies
	// from the next response onwards.
	InstructionsChanged bool
	NewInstructions     string
}

// Any reports whether the diff contains at least one change.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.WakeChanged || d.InstructionsChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Log.Level != new.Log.Level {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Log.Level
	}

	if old.Wake != new.Wake {
		d.WakeChanged = true
		d.NewWake = new.Wake
	}

	if old.Realtime.Instructions != new.Realtime.Instructions {
		d.InstructionsChanged = true
		d.NewInstructions = new.Realtime.Instructions
	}

	return d
}
