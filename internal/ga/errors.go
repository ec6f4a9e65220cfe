package ga

// ErrConfig matches any *ConfigError.
// Use errors.Is(err, ErrConfig) to check for this error.
var ErrConfig = &ConfigError{}

// ConfigError reports an invalid run configuration. It is always returned
// before any generation runs.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error"
	}
	return "config error: " + e.Field + " " + e.Reason
}

func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}
