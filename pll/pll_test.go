package pll

import (
	"errors"
	"math"
	"testing"
)

// TestWindowCounts checks the interval-to-window rounding, including the
// clamps at both ends.
func TestWindowCounts(t *testing.T) {
	testCases := []struct {
		name    string
		deltaNs uint64
		want    int
	}{
		{"OneCell", 2000, 1},
		{"TwoCells", 4000, 2},
		{"ThreeCells", 6000, 3},
		{"FourCells", 8000, 4},
		{"FiveCells", 10000, 5},
		{"ClampHigh", 40000, 5},
		{"ClampLow", 300, 1},
		{"RoundsNearest", 4300, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(Config{CellTimeNs: 2000})
			if got := p.Process(tc.deltaNs); got != tc.want {
				t.Errorf("Process(%d) = %d windows, want %d", tc.deltaNs, got, tc.want)
			}
		})
	}
}

// TestCellAdjustment verifies the loop converges toward a consistently
// off-nominal bit rate and never leaves its tolerance band.
func TestCellAdjustment(t *testing.T) {
	p := New(Config{CellTimeNs: 2000})

	// Exact nominal intervals leave the estimate untouched.
	p.Process(4000)
	if got := p.CellTime(); got != 2000 {
		t.Fatalf("CellTime after exact interval = %g, want 2000", got)
	}

	// A stream running 5% slow pulls the estimate up toward 2100.
	for i := 0; i < 500; i++ {
		p.Process(4200)
	}
	if got := p.CellTime(); math.Abs(got-2100) > 10 {
		t.Errorf("CellTime after slow stream = %g, want about 2100", got)
	}

	// Garbage intervals cannot push the estimate past the tolerance bound.
	for i := 0; i < 100; i++ {
		p.Process(50000)
	}
	if got := p.CellTime(); got > 2500 {
		t.Errorf("CellTime after garbage = %g, want at most 2500", got)
	}

	p.Reset()
	if got := p.CellTime(); got != 2000 {
		t.Errorf("CellTime after Reset = %g, want 2000", got)
	}
}

// TestBitSpacing checks the absolute-time adapter used by the bitstream
// assembler.
func TestBitSpacing(t *testing.T) {
	p := New(Config{CellTimeNs: 2000})

	times := []uint64{4000, 10000, 18000}
	want := []int{2, 3, 4}
	for i, tm := range times {
		n, err := p.BitSpacing(tm)
		if err != nil {
			t.Fatalf("BitSpacing(%d) failed: %v", tm, err)
		}
		if n != want[i] {
			t.Errorf("BitSpacing(%d) = %d windows, want %d", tm, n, want[i])
		}
	}

	_, err := p.BitSpacing(100)
	if !errors.Is(err, ErrNonMonotonic) {
		t.Fatalf("backwards time: got %v, want ErrNonMonotonic", err)
	}
}
