package software

import "github.com/Carmen-Shannon/oxy-bloom/common"

// DeviceBuilderOption is a function that configures a device instance during construction.
type DeviceBuilderOption func(*device)

// WithWorkers is an option builder that sets the number of shading workers.
//
// Parameters:
//   - workers: the worker count, values below 1 are raised to 1
//
// Returns:
//   - DeviceBuilderOption: a function that applies the worker option to a device
func WithWorkers(workers int) DeviceBuilderOption {
	return func(d *device) {
		d.workers = workers
	}
}

// WithMaxTextureDimension is an option builder that sets the largest accepted texture edge.
//
// Parameters:
//   - dim: the maximum width or height in pixels
//
// Returns:
//   - DeviceBuilderOption: a function that applies the limit to a device
func WithMaxTextureDimension(dim int) DeviceBuilderOption {
	return func(d *device) {
		d.maxDim = dim
	}
}

// WithMaxTargets is an option builder that caps the number of live render targets.
// Allocations beyond the cap fail with ErrTargetLimit. Zero means unlimited.
//
// Parameters:
//   - n: the maximum number of live render targets
//
// Returns:
//   - DeviceBuilderOption: a function that applies the cap to a device
func WithMaxTargets(n int) DeviceBuilderOption {
	return func(d *device) {
		d.maxTargets = n
	}
}

// WithLogger is an option builder that sets the device logger.
//
// Parameters:
//   - logger: the logger receiving allocation and misuse messages
//
// Returns:
//   - DeviceBuilderOption: a function that applies the logger to a device
func WithLogger(logger common.Logger) DeviceBuilderOption {
	return func(d *device) {
		if logger != nil {
			d.logger = logger
		}
	}
}
