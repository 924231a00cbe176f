package partition

import (
	"reflect"
	"testing"
)

func intRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestSlice_TenIntoThree(t *testing.T) {
	items := intRange(10)

	wantSizes := []int{4, 3, 3}
	var got []int

	for i := 1; i <= 3; i++ {
		part, err := Slice(items, Batch{Index: i, Count: 3})
		if err != nil {
			t.Fatalf("Slice(batch %d) error: %v", i, err)
		}
		if len(part) != wantSizes[i-1] {
			t.Errorf("batch %d size = %d, want %d", i, len(part), wantSizes[i-1])
		}
		got = append(got, part...)
	}

	if !reflect.DeepEqual(got, items) {
		t.Errorf("concatenated batches = %v, want %v", got, items)
	}
}

func TestSlice_CoversExactly(t *testing.T) {
	tests := []struct {
		name  string
		len   int
		count int
	}{
		{"even split", 12, 4},
		{"remainder", 13, 4},
		{"more batches than items", 3, 5},
		{"single batch", 7, 1},
		{"empty", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := intRange(tt.len)

			var concat []int
			var sizes []int
			for i := 1; i <= tt.count; i++ {
				part, err := Slice(items, Batch{Index: i, Count: tt.count})
				if err != nil {
					t.Fatalf("Slice(batch %d) error: %v", i, err)
				}
				sizes = append(sizes, len(part))
				concat = append(concat, part...)
			}

			if len(concat) != tt.len {
				t.Fatalf("sizes sum to %d, want %d", len(concat), tt.len)
			}
			for i, v := range concat {
				if v != i {
					t.Fatalf("order broken at %d: got %d", i, v)
				}
			}

			minSize, maxSize := sizes[0], sizes[0]
			for _, s := range sizes {
				minSize = min(minSize, s)
				maxSize = max(maxSize, s)
			}
			if maxSize-minSize > 1 {
				t.Errorf("sizes %v differ by more than 1", sizes)
			}
		})
	}
}

func TestSlice_InvalidBatch(t *testing.T) {
	items := intRange(10)

	for _, b := range []Batch{{0, 3}, {4, 3}, {1, 0}, {-1, 2}} {
		if _, err := Slice(items, b); err == nil {
			t.Errorf("Slice(%+v) expected error, got nil", b)
		}
	}
}
