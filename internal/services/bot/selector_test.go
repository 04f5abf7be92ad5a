package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Candidate
		baseline   int
		wantX      int
		wantOK     bool
	}{
		{
			name:   "no candidates",
			wantOK: false,
		},
		{
			name: "zero net debt pool beats a lower score that adds holes",
			candidates: []Candidate{
				{X: 0, Score: 5, HolesCost: 10},
				{X: 1, Score: 8, HolesCost: 2},
			},
			baseline: 2,
			wantX:    1, wantOK: true,
		},
		{
			name: "max height breaks ties inside the pool",
			candidates: []Candidate{
				{X: 0, Score: 3, MaxHeight: 6},
				{X: 1, Score: 3, MaxHeight: 4},
			},
			wantX: 1, wantOK: true,
		},
		{
			name: "first candidate wins a full tie",
			candidates: []Candidate{
				{X: 4, Score: 3, MaxHeight: 4},
				{X: 7, Score: 3, MaxHeight: 4},
			},
			wantX: 4, wantOK: true,
		},
		{
			name: "falls back to the global minimum when every move adds holes",
			candidates: []Candidate{
				{X: 0, Score: 9, HolesCost: 5},
				{X: 1, Score: 2, HolesCost: 7},
			},
			baseline: 1,
			wantX:    1, wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectBest(tt.candidates, tt.baseline)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantX, got.X)
			}
		})
	}
}
