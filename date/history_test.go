package date

import "testing"

func TestAppend(t *testing.T) {
	h := new(History[string])
	d1, v1 := New(2025, 07, 01), "25 Jul 1"
	d2, v2 := New(2024, 07, 01), "24 Jul 1"

	// Test is about appending two values in reverse order and checking that everything is
	// as expected at every step of the way.

	if h.Len() != 0 {
		t.Errorf("History.Len() = %v want 0", h.Len())
	}

	h.Append(d1, v1)
	if h.Len() != 1 {
		t.Errorf("Append(d1, v1).Len() = %v want 1", h.Len())
	}

	h.Append(d2, v2)
	if h.Len() != 2 {
		t.Errorf("Append(d2, v2).Len() = %v want 2", h.Len())
	}

	if h.days[1] != d1 {
		t.Errorf("history[1].day = %v want %v", h.days[1], d1)
	}
	if h.days[0] != d2 {
		t.Errorf("history[0].day = %v want %v", h.days[0], d2)
	}

	h.Append(d1, "replaced")
	if got, _ := h.Get(d1); got != "replaced" || h.Len() != 2 {
		t.Errorf("Append on existing day: Get = %q, Len = %d", got, h.Len())
	}
	if day, v := h.Latest(); day != d1 || v != "replaced" {
		t.Errorf("Latest() = %v, %q", day, v)
	}
}

func TestValueAsOf(t *testing.T) {
	h := new(History[int])
	h.Append(New(2025, 1, 10), 10)
	h.Append(New(2025, 1, 3), 3)

	tests := []struct {
		on     Date
		want   int
		wantOn Date
		ok     bool
	}{
		{New(2025, 1, 1), 0, Date{}, false},
		{New(2025, 1, 3), 3, New(2025, 1, 3), true},
		{New(2025, 1, 9), 3, New(2025, 1, 3), true},
		{New(2025, 2, 1), 10, New(2025, 1, 10), true},
	}
	for _, tt := range tests {
		got, on, ok := h.ValueAsOf(tt.on)
		if got != tt.want || on != tt.wantOn || ok != tt.ok {
			t.Errorf("ValueAsOf(%v) = %v, %v, %v want %v, %v, %v", tt.on, got, on, ok, tt.want, tt.wantOn, tt.ok)
		}
	}
}
