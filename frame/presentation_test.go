package frame

import "testing"

func TestResolvePacingPrecedence(t *testing.T) {
	cases := []struct {
		name  string
		hints []PacingHint
		want  PacingHint
	}{
		{"fifo wins over commit-timing", []PacingHint{PacingCommitTiming, PacingFIFO}, PacingFIFO},
		{"commit-timing wins over tearing", []PacingHint{PacingTearing, PacingCommitTiming}, PacingCommitTiming},
		{"tearing wins over default", []PacingHint{PacingDefault, PacingTearing}, PacingTearing},
		{"fifo wins over everything", []PacingHint{PacingTearing, PacingCommitTiming, PacingFIFO}, PacingFIFO},
		{"no hints stays default", nil, PacingDefault},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolvePacing(tc.hints...); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}
