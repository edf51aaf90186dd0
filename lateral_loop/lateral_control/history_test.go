package control

import "testing"

func TestHistory_EvictsOldestAtCapacity(t *testing.T) {
	h := NewHistory[string](3)
	for _, v := range []string{"a", "b", "c", "d"} {
		h.Append(v)
	}
	if h.Len() != 3 {
		t.Fatalf("expected length 3, got %d", h.Len())
	}
	want := []string{"b", "c", "d"}
	got := h.Snapshot()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("snapshot[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if v := h.LookBack(0); v != "d" {
		t.Errorf("LookBack(0) = %q, want d", v)
	}
	if v := h.LookBack(2); v != "b" {
		t.Errorf("LookBack(2) = %q, want b", v)
	}
}

func TestHistory_LookBackClampsToOldest(t *testing.T) {
	h := NewHistory[float64](30)
	h.Append(1.5)
	h.Append(2.5)
	// Deep lookbacks clamp to the oldest stored sample during startup
	if v := h.LookBack(29); v != 1.5 {
		t.Fatalf("LookBack(29) = %v, want oldest sample 1.5", v)
	}
	if v := h.LookBack(1); v != 1.5 {
		t.Fatalf("LookBack(1) = %v, want 1.5", v)
	}
	if v := h.LookBack(0); v != 2.5 {
		t.Fatalf("LookBack(0) = %v, want 2.5", v)
	}
}

func TestHistory_EmptyReturnsZeroValue(t *testing.T) {
	h := NewHistory[float64](4)
	if v := h.LookBack(0); v != 0.0 {
		t.Fatalf("expected zero value from empty history, got %v", v)
	}
	if h.Len() != 0 {
		t.Fatalf("expected empty history, got length %d", h.Len())
	}
}

func TestHistory_ResetClears(t *testing.T) {
	h := NewHistory[int](3)
	h.Append(7)
	h.Append(8)
	h.Reset()
	if h.Len() != 0 {
		t.Fatalf("expected empty history after reset, got length %d", h.Len())
	}
	if h.Cap() != 3 {
		t.Fatalf("expected capacity 3 after reset, got %d", h.Cap())
	}
	h.Append(9)
	if v := h.LookBack(5); v != 9 {
		t.Fatalf("expected 9 after reset and append, got %d", v)
	}
}

func TestHistory_FullWindowOrder(t *testing.T) {
	h := NewHistory[int](30)
	for i := 0; i < 45; i++ {
		h.Append(i)
	}
	// Newest is 44, oldest surviving is 15
	if v := h.LookBack(0); v != 44 {
		t.Errorf("LookBack(0) = %d, want 44", v)
	}
	if v := h.LookBack(29); v != 15 {
		t.Errorf("LookBack(29) = %d, want 15", v)
	}
	if v := h.LookBack(9); v != 35 {
		t.Errorf("LookBack(9) = %d, want 35", v)
	}
}
