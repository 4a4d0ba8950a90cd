package pass

import "github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"

// PassBuilderOption is a function that configures a pass instance during construction.
type PassBuilderOption func(*pass)

// WithBeforeRender is an option builder that installs a hook run before every draw.
// The hook receives the pass material so it can rebind per-frame parameters.
//
// Parameters:
//   - hook: the function to run before the draw
//
// Returns:
//   - PassBuilderOption: a function that applies the hook option to a pass
func WithBeforeRender(hook func(m material.Material)) PassBuilderOption {
	return func(p *pass) {
		p.beforeRender = hook
	}
}
