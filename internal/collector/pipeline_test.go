package collector

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logdrop/internal/output"
)

// captureOutput records everything fed to it.
type captureOutput struct {
	mu      sync.Mutex
	records []map[string]any
	closed  bool
}

func (c *captureOutput) Name() string { return "capture" }

func (c *captureOutput) Feed(record map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, record)
	return nil
}

func (c *captureOutput) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *captureOutput) snapshot() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]any(nil), c.records...)
}

func TestPipelineFansOutToEveryOutput(t *testing.T) {
	first := &captureOutput{}
	second := &captureOutput{}
	pipe := NewPipeline([]output.Output{first, second}, nil)
	pipe.Start()

	pipe.Submit(map[string]any{"message": "le message - 0"})
	pipe.Submit(map[string]any{"message": "le message - 1"})
	pipe.Stop()

	for _, out := range []*captureOutput{first, second} {
		records := out.snapshot()
		require.Len(t, records, 2)
		assert.Equal(t, "le message - 0", records[0]["message"])
		assert.Equal(t, "le message - 1", records[1]["message"])
		assert.True(t, out.closed)
	}

	stats := pipe.Snapshot()
	assert.Equal(t, int64(2), stats.Received)
	assert.Equal(t, int64(0), stats.Dropped)
	assert.Equal(t, int64(2), stats.Outputs["capture"].Fed)
}

func TestPipelineDropsRecordsWithoutMessage(t *testing.T) {
	sink := &captureOutput{}
	pipe := NewPipeline([]output.Output{sink}, nil)
	pipe.Start()

	pipe.Submit(map[string]any{"id": int64(42)})
	pipe.Submit(map[string]any{"message": "kept"})
	pipe.Stop()

	records := sink.snapshot()
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0]["message"])

	stats := pipe.Snapshot()
	assert.Equal(t, int64(2), stats.Received)
	assert.Equal(t, int64(1), stats.Dropped)
}

func TestPipelineStopWithNoOutputs(t *testing.T) {
	pipe := NewPipeline(nil, nil)
	pipe.Start()
	pipe.Submit(map[string]any{"message": "nowhere to go"})
	pipe.Stop()

	assert.Equal(t, int64(1), pipe.Snapshot().Received)
}
