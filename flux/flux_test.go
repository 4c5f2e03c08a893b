package flux

import (
	"errors"
	"testing"
)

func TestNewValidation(t *testing.T) {
	testCases := []struct {
		name    string
		times   []uint64
		wantErr bool
	}{
		{"Valid", []uint64{100, 200, 350}, false},
		{"Empty", nil, true},
		{"Duplicate", []uint64{100, 100, 200}, true},
		{"Backwards", []uint64{200, 100}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(tc.times)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("got %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if s.Len() != len(tc.times) {
				t.Errorf("Len = %d, want %d", s.Len(), len(tc.times))
			}
		})
	}
}

func TestFromPeriods(t *testing.T) {
	s, err := FromPeriods([]byte{80, 120, 160})
	if err != nil {
		t.Fatalf("FromPeriods failed: %v", err)
	}
	want := []uint64{4000, 10000, 18000}
	got := s.Times()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("time %d = %d ns, want %d", i, got[i], want[i])
		}
	}

	if _, err := FromPeriods(nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty periods: got %v, want ErrInvalidInput", err)
	}
	if _, err := FromPeriods([]byte{80, 0, 120}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero period: got %v, want ErrInvalidInput", err)
	}
}

// TestPeriods checks the round trip back to 50 ns units, including rounding
// and saturation of oversized intervals.
func TestPeriods(t *testing.T) {
	s, err := New([]uint64{4000, 10020, 30020, 100000})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	want := []byte{80, 120, 255, 255}
	got := s.Periods()
	if len(got) != len(want) {
		t.Fatalf("got %d periods, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("period %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestIterator(t *testing.T) {
	s, err := New([]uint64{4000, 10000, 18000})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	it := s.Iterator()
	want := []uint64{4000, 6000, 8000}
	for i, w := range want {
		if got := it.NextFlux(); got != w {
			t.Errorf("interval %d = %d ns, want %d", i, got, w)
		}
	}
	if !it.IsDone() {
		t.Error("IsDone = false after consuming all transitions")
	}
	if got := it.NextFlux(); got != 0 {
		t.Errorf("NextFlux past end = %d, want 0", got)
	}
}

// TestFromBits verifies the synthesized transition times: one transition at
// the end of each set bit cell.
func TestFromBits(t *testing.T) {
	// Bits 10010001: transitions at cells 0, 3 and 7.
	s, err := FromBits([]byte{0x91}, 8, 2000)
	if err != nil {
		t.Fatalf("FromBits failed: %v", err)
	}
	want := []uint64{2000, 8000, 16000}
	got := s.Times()
	if len(got) != len(want) {
		t.Fatalf("got %d transitions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("time %d = %d ns, want %d", i, got[i], want[i])
		}
	}

	if _, err := FromBits([]byte{0x00}, 8, 2000); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("all-zero bits: got %v, want ErrInvalidInput", err)
	}
	if _, err := FromBits(nil, 0, 2000); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty bits: got %v, want ErrInvalidInput", err)
	}
}
