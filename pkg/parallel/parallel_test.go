package parallel

import "testing"

func TestChunksCoverRange(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"empty", 0},
		{"single", 1},
		{"below chunk", minChunk - 1},
		{"many", 10*minChunk + 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := chunks(tt.n)
			next := 0
			for _, c := range cs {
				if c[0] != next {
					t.Fatalf("chunk starts at %d, want %d", c[0], next)
				}
				if c[1] <= c[0] {
					t.Fatalf("empty chunk %v", c)
				}
				next = c[1]
			}
			if next != tt.n {
				t.Errorf("chunks cover [0,%d), want [0,%d)", next, tt.n)
			}
		})
	}
}

func TestForVisitsEveryIndexOnce(t *testing.T) {
	n := 5000
	hits := make([]int, n)
	For(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			hits[i]++
		}
	})
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times", i, h)
		}
	}
}

func TestReduceSum(t *testing.T) {
	n := 10000
	sum := Reduce(n, func(lo, hi int) int {
		s := 0
		for i := lo; i < hi; i++ {
			s += i
		}
		return s
	}, func(a, b int) int { return a + b })
	if want := n * (n - 1) / 2; sum != want {
		t.Errorf("Reduce sum = %d, want %d", sum, want)
	}
}

func TestReduceEmpty(t *testing.T) {
	got := Reduce(0, func(lo, hi int) int { return 1 }, func(a, b int) int { return a + b })
	if got != 0 {
		t.Errorf("Reduce over empty range = %d, want 0", got)
	}
}
