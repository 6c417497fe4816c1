package random

import "testing"

func TestHexLengthAndCharset(t *testing.T) {
	src := NewSeeded(1)

	s := src.Hex(20)
	if len(s) != 40 {
		t.Fatalf("len = %d, want 40", len(s))
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			t.Fatalf("non-hex character %q in %q", c, s)
		}
	}
}

func TestSeededIsDeterministic(t *testing.T) {
	a := NewSeeded(42).Hex(16)
	b := NewSeeded(42).Hex(16)
	if a != b {
		t.Errorf("same seed produced %q and %q", a, b)
	}
}

func TestShufflePermutes(t *testing.T) {
	src := NewSeeded(7)

	vals := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	src.Shuffle(len(vals), func(i, j int) { vals[i], vals[j] = vals[j], vals[i] })

	seen := make(map[int]bool, len(vals))
	for _, v := range vals {
		if seen[v] {
			t.Fatalf("value %d duplicated after shuffle", v)
		}
		seen[v] = true
	}
	if len(seen) != 10 {
		t.Fatalf("shuffle lost elements: %v", vals)
	}
}
