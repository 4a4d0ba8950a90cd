package common

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLoggerFormatsLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriterLogger("Bloom", false, &out, &errOut)

	l.Infof("levels=%d", 8)
	l.Warnf("slow frame")
	l.Debugf("hidden")

	assert.Contains(t, out.String(), "[Bloom] INFO: levels=8")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, errOut.String(), "[Bloom] WARN: slow frame")

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("visible")
	assert.Contains(t, out.String(), "[Bloom] DEBUG: visible")
}

func TestWriterLoggerWithoutPrefix(t *testing.T) {
	var out bytes.Buffer
	l := NewWriterLogger("", false, &out, &out)
	l.Errorf("boom")
	assert.Contains(t, out.String(), "ERROR: boom")
	assert.NotContains(t, out.String(), "[")
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.SetDebug(true)
	assert.False(t, l.DebugEnabled())
	l.Errorf("ignored")
}
