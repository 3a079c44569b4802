package config

import (
	"errors"
	"fmt"
	"strings"

	"inputprefs/internal/hkl"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Is lets errors.Is match ErrInvalidConfig.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig && len(e) > 0
}

// ValidateConfig checks every section and returns all problems at once.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateStorage(&c.Storage)...)
	errs = append(errs, validateActivation(&c.Activation)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateProfile(&c.Profile)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateStorage(s *StorageConfig) ValidationErrors {
	var errs ValidationErrors

	switch s.Backend {
	case "sqlite":
		if s.Path == "" {
			errs = append(errs, *RequiredFieldError("storage.path"))
		}
	case "registry", "memory":
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend: %s (valid: sqlite, registry, memory)", s.Backend),
		})
	}

	if s.BusyTimeoutMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.busy_timeout_ms",
			Message: "busy timeout cannot be negative",
		})
	}
	return errs
}

func validateActivation(a *ActivationConfig) ValidationErrors {
	var errs ValidationErrors

	switch a.Backend {
	case "auto", "windows", "session":
	default:
		errs = append(errs, ValidationError{
			Field:   "activation.backend",
			Message: fmt.Sprintf("invalid backend: %s (valid: auto, windows, session)", a.Backend),
		})
	}

	switch a.Broadcast {
	case "auto", "dbus", "none":
	default:
		errs = append(errs, ValidationError{
			Field:   "activation.broadcast",
			Message: fmt.Sprintf("invalid broadcast: %s (valid: auto, dbus, none)", a.Broadcast),
		})
	}

	if a.FallbackKey != "" {
		if _, err := hkl.ParseKey(a.FallbackKey); err != nil {
			errs = append(errs, ValidationError{
				Field:   "activation.fallback_key",
				Message: err.Error(),
			})
		}
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "file path is required when output includes a file",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %s (valid: stderr, file, both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, *RangeError("logging.max_size_mb", 1, "unbounded"))
	}
	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}
	return errs
}

func validateProfile(p *ProfileConfig) ValidationErrors {
	var errs ValidationErrors
	if p.Watch && p.Path == "" {
		errs = append(errs, *RequiredFieldError("profile.path"))
	}
	if p.DebounceMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "profile.debounce_ms",
			Message: "debounce cannot be negative",
		})
	}
	return errs
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}
