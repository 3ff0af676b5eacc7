package carousel

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	if _, err := New(0); !errors.Is(err, ErrEmpty) {
		t.Errorf("New(0) err = %v, want ErrEmpty", err)
	}
	if _, err := New(-2); !errors.Is(err, ErrEmpty) {
		t.Errorf("New(-2) err = %v, want ErrEmpty", err)
	}
	c, err := New(3)
	if err != nil {
		t.Fatalf("New(3) failed: %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestCarousel_NextPrevious(t *testing.T) {
	c, _ := New(3)

	tests := []struct {
		name string
		fn   func(int) int
		in   int
		want int
	}{
		{"next from 0", c.Next, 0, 1},
		{"next wraps", c.Next, 2, 0},
		{"previous from 2", c.Previous, 2, 1},
		{"previous wraps", c.Previous, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCarousel_Cyclic(t *testing.T) {
	for length := 1; length <= 7; length++ {
		c, _ := New(length)
		for start := 0; start < length; start++ {
			i := start
			for k := 0; k < length; k++ {
				i = c.Next(i)
			}
			if i != start {
				t.Errorf("len %d: Next^%d(%d) = %d", length, length, start, i)
			}
			for k := 0; k < length; k++ {
				i = c.Previous(i)
			}
			if i != start {
				t.Errorf("len %d: Previous^%d(%d) = %d", length, length, start, i)
			}
		}
	}
}

func TestCarousel_Check(t *testing.T) {
	c, _ := New(2)
	if err := c.Check(1); err != nil {
		t.Errorf("Check(1) = %v", err)
	}
	for _, i := range []int{-1, 2} {
		if err := c.Check(i); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Check(%d) = %v, want ErrOutOfRange", i, err)
		}
	}
}
