package grade

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func score(f float64) *float64 { return &f }

func TestSummarize(t *testing.T) {
	tests := []struct {
		name         string
		scores       [4]*float64
		wantAverage  *float64
		wantStatus   string
		wantRecovery bool
	}{
		{name: "no scores", wantStatus: StatusPending},
		{name: "one score", scores: [4]*float64{score(9)}, wantAverage: score(9), wantStatus: StatusPending},
		{name: "three high scores", scores: [4]*float64{score(9), score(9), nil, score(10)}, wantAverage: score(9.3), wantStatus: StatusPending},
		{name: "approved", scores: [4]*float64{score(8.5), score(7.8), score(9), score(8.2)}, wantAverage: score(8.4), wantStatus: StatusApproved},
		{name: "exactly 7", scores: [4]*float64{score(7), score(7), score(7), score(7)}, wantAverage: score(7), wantStatus: StatusApproved},
		{name: "recovery band", scores: [4]*float64{score(6), score(6), score(5), score(7)}, wantAverage: score(6), wantStatus: StatusPending, wantRecovery: true},
		{name: "exactly 5", scores: [4]*float64{score(5), score(5), score(5), score(5)}, wantAverage: score(5), wantStatus: StatusPending, wantRecovery: true},
		{name: "failed", scores: [4]*float64{score(4), score(3), score(5), score(4.5)}, wantAverage: score(4.1), wantStatus: StatusFailed},
		{name: "rounds half up", scores: [4]*float64{score(6.5), score(7), nil, nil}, wantAverage: score(6.8), wantStatus: StatusPending},
		{name: "status on the unrounded average", scores: [4]*float64{score(7), score(7), score(7), score(6.9)}, wantAverage: score(7), wantStatus: StatusPending, wantRecovery: true},
		{name: "zeros", scores: [4]*float64{score(0), score(0), score(0), score(0)}, wantAverage: score(0), wantStatus: StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.scores)
			if tt.wantAverage == nil {
				assert.Nil(t, got.Average)
			} else {
				require.NotNil(t, got.Average)
				assert.InDelta(t, *tt.wantAverage, *got.Average, 1e-9)
			}
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantRecovery, got.InRecovery)
		})
	}
}

func TestSummarize_properties(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	for i := 0; i < 1000; i++ {
		var scores [4]*float64
		var sum float64
		var n int
		for j := range scores {
			if rng.Intn(4) == 0 {
				continue
			}
			s := float64(rng.Intn(101)) / 10
			scores[j] = &s
			sum += s
			n++
		}

		got := Summarize(scores)
		if n == 0 {
			assert.Nil(t, got.Average)
			assert.Equal(t, StatusPending, got.Status)
			continue
		}
		require.NotNil(t, got.Average)
		assert.InDelta(t, math.Floor(sum/float64(n)*10+0.5)/10, *got.Average, 1e-9)

		raw := sum / float64(n)
		switch {
		case n < 4:
			assert.Equal(t, StatusPending, got.Status)
		case raw >= 7:
			assert.Equal(t, StatusApproved, got.Status)
		case raw < 5:
			assert.Equal(t, StatusFailed, got.Status)
		default:
			assert.Equal(t, StatusPending, got.Status)
			assert.True(t, got.InRecovery)
		}
	}
}
