package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrAllocation    = errors.New("allocation error")
	ErrIngestion     = errors.New("ingestion error")
	ErrInference     = errors.New("inference error")
	ErrOutput        = errors.New("output error")
	ErrRelocation    = errors.New("relocation error")
	ErrExternalTool  = errors.New("external tool error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err should stop the whole run rather than a single
// file. Only configuration and allocation failures qualify.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrAllocation)
}

// Kind returns a short label for the marker carried by err, used in run
// summaries and history rows.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrAllocation):
		return "allocation"
	case errors.Is(err, ErrIngestion):
		return "ingestion"
	case errors.Is(err, ErrInference):
		return "inference"
	case errors.Is(err, ErrOutput):
		return "output"
	case errors.Is(err, ErrRelocation):
		return "relocation"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
