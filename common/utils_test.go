package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 0, 3, 4))
	assert.Equal(t, "", Coalesce[string]())
	assert.Equal(t, "a", Coalesce("", "a"))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(-5, 1, 10))
	assert.Equal(t, 10, Clamp(50, 1, 10))
	assert.Equal(t, 4, Clamp(4, 1, 10))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
}

func TestAtLeast(t *testing.T) {
	assert.Equal(t, 1, AtLeast(0, 1))
	assert.Equal(t, 7, AtLeast(7, 1))
}
