package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThumbnailOffsets(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		want     []float64
	}{
		{
			name:     "thirty seconds",
			duration: 30,
			want:     []float64{0, 7.5, 15, 22.5, 29},
		},
		{
			name:     "two minutes",
			duration: 120,
			want:     []float64{0, 30, 60, 90, 119},
		},
		{
			name:     "shorter than end margin",
			duration: 0.5,
			want:     []float64{0, 0.125, 0.25, 0.375, 0.4375},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := thumbnailOffsets(tt.duration, 5)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThumbnailOffsetsStayInRange(t *testing.T) {
	for _, duration := range []float64{2, 10, 61.7, 3600} {
		offsets := thumbnailOffsets(duration, 5)
		assert.Len(t, offsets, 5)
		for i, off := range offsets {
			assert.GreaterOrEqual(t, off, 0.0)
			assert.Less(t, off, duration)
			if i > 0 {
				assert.Greater(t, off, offsets[i-1])
			}
		}
	}
}
