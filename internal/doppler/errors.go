package doppler

import (
	"errors"
	"fmt"
)

// ErrRunning is returned when a structural reconfiguration is attempted
// while the acquisition loop is active.
var ErrRunning = errors.New("engine is running; stop before reconfiguring")

// ConfigError reports an invalid physical or processing parameter supplied
// at configuration time. It is fatal to the configure call only and never
// disturbs an already-running acquisition.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

// DomainError reports a mathematically undefined evaluation, such as a
// radial position outside the vessel lumen. Domain errors are always caught
// before a value reaches the synthesizer.
type DomainError struct {
	Op     string
	Value  float64
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s undefined for %g: %s", e.Op, e.Value, e.Reason)
}
