package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnknownModel   = errors.New("unknown model")
	ErrBackendFailure = errors.New("backend failure")
)

// ResourceStatus is the capacity snapshot attached to a resource rejection.
type ResourceStatus struct {
	MemoryAvailableGB float64 `json:"memory_available_gb"`
	MemoryRequiredGB  float64 `json:"memory_required_gb"`
	GPUUtilization    float64 `json:"gpu_utilization,omitempty"`
	CPUPercent        float64 `json:"cpu_percent,omitempty"`
}

// InsufficientResourcesError is returned when the worker refuses a submission
// because the model does not fit the machine. It carries the structured
// capacity data from the backend so callers can show actionable detail.
type InsufficientResourcesError struct {
	Message   string         `json:"message"`
	Resources ResourceStatus `json:"resources"`
}

func (e *InsufficientResourcesError) Error() string {
	return fmt.Sprintf("insufficient resources: %s", e.Message)
}
