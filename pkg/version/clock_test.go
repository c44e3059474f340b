package version

import "testing"

func fixedEnv(t uint64) EnvFunc {
	return EnvFunc(func() uint64 { return t })
}

func TestUpdateAdvancesWithClock(t *testing.T) {
	c := NewClock(fixedEnv(1000))
	if got := c.Update(500); got != 1000 {
		t.Fatalf("expected 1000, got %d", got)
	}
}

func TestUpdateBumpsWithinSameSecond(t *testing.T) {
	c := NewClock(fixedEnv(1000))
	v1 := c.Update(1000)
	if v1 != 1001 {
		t.Fatalf("expected 1001, got %d", v1)
	}
	v2 := c.Update(v1)
	if v2 != 1002 {
		t.Fatalf("expected 1002, got %d", v2)
	}
}

func TestUpdateMonotoneSequence(t *testing.T) {
	c := NewClock(fixedEnv(42))
	prev := uint64(0)
	for i := 0; i < 10; i++ {
		next := c.Update(prev)
		if next <= prev {
			t.Fatalf("sequence not strictly increasing: prev=%d next=%d", prev, next)
		}
		if next < 42 {
			t.Fatalf("version %d below now_seconds 42", next)
		}
		prev = next
	}
}
