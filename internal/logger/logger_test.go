package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("loaded ledger", "entries", 42)

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "loaded ledger")
	assert.Contains(t, out, "entries")
	assert.Contains(t, out, "42")
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("test message")
	Info("info message")

	assert.Zero(t, buf.Len(), "expected no output when verbose is disabled")
}

func TestWarn_AlwaysWritten(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("rejected file", "file", "R1902672_001.nc", "reason", "missing coordinates")

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "rejected file")
	assert.Contains(t, out, "R1902672_001.nc")
	assert.Contains(t, out, "missing coordinates")
}

func TestError_AlwaysWritten(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Error("store write failed", "file", "a.nc")

	assert.Contains(t, buf.String(), "ERROR")
	assert.Contains(t, buf.String(), "store write failed")
}

func TestSection(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Section("Ingestion")

	assert.Equal(t, "\n=== Ingestion ===\n", buf.String())
}

func TestSection_NotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Section("Ingestion")

	assert.Empty(t, buf.String())
}

func TestConcurrentAccess(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(true)
			Debug("concurrent", "worker", i)
			IsVerbose()
			SetVerbose(false)
		}()
	}
	wg.Wait()
}
