package backfill

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	t.Run("reports at interval", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 10, 5)
		tracker.Start()

		tracker.Update(3)
		assert.Empty(t, buf.String())

		tracker.Update(5)
		assert.Contains(t, buf.String(), "5/10 (50.0%)")
	})

	t.Run("finish prints final progress", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 4, 100)
		tracker.Start()

		tracker.Update(2)
		tracker.Finish()
		assert.Contains(t, buf.String(), "4/4 (100.0%)")
	})

	t.Run("increment caps at total", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 3, 1)
		tracker.Start()

		tracker.Increment(5)
		assert.Contains(t, buf.String(), "3/3")
	})

	t.Run("ignores updates before start", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 3, 1)

		tracker.Update(2)
		tracker.Finish()
		assert.Empty(t, buf.String())
		assert.Zero(t, tracker.Elapsed())
	})
}
