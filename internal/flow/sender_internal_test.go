package flow

import "testing"

func TestFinalIndexCeilsDivision(t *testing.T) {
	t.Parallel()

	cases := map[int]int{
		0:     -1,
		1:     1,
		1024:  1,
		1025:  2,
		10000: 10,
	}
	for budget, want := range cases {
		if got := finalIndex(budget); got != want {
			t.Errorf("finalIndex(%d) = %d, want %d", budget, got, want)
		}
	}
}

func TestClampBounds(t *testing.T) {
	t.Parallel()

	if got := clamp(5, 1000, 60000); got != 1000 {
		t.Errorf("clamp(5, 1000, 60000) = %v, want 1000", got)
	}
	if got := clamp(1e9, 1000, 60000); got != 60000 {
		t.Errorf("clamp(1e9, 1000, 60000) = %v, want 60000", got)
	}
	if got := clamp(5000, 1000, 60000); got != 5000 {
		t.Errorf("clamp(5000, 1000, 60000) = %v, want 5000", got)
	}
}
