package bloom

import "errors"

var (
	// ErrInvalidParameter is returned when a parameter is outside its allowed range.
	ErrInvalidParameter = errors.New("invalid bloom parameter")
	// ErrAllocation is returned when a pass render target cannot be allocated.
	ErrAllocation = errors.New("bloom target allocation failed")
	// ErrNotInitialized is returned when rendering before Init or after Cleanup.
	ErrNotInitialized = errors.New("bloom filter not initialized")
	// ErrMissingScene is returned when a frame is rendered without a scene color texture.
	ErrMissingScene = errors.New("missing scene color texture")
	// ErrMissingGlowRenderer is returned when a glow mode needs the pre-pass but no GlowRenderer is set.
	ErrMissingGlowRenderer = errors.New("glow mode requires a glow renderer")
)
