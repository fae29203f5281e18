package viewport

import "testing"

func TestScrollSaturates(t *testing.T) {
	v := New(80, 10)
	v.SetTotalLines(25)

	v.ScrollUp(5)
	if v.Offset != 0 {
		t.Fatalf("scroll up at top: offset = %d, want 0", v.Offset)
	}

	v.ScrollDown(100)
	if v.Offset != 15 {
		t.Fatalf("scroll down past end: offset = %d, want 15", v.Offset)
	}

	v.ScrollDown(1)
	if v.Offset != 15 {
		t.Fatalf("scroll down at bottom: offset = %d, want 15", v.Offset)
	}
}

func TestPageAndHalfPage(t *testing.T) {
	v := New(80, 10)
	v.SetTotalLines(100)

	v.PageDown()
	if v.Offset != 10 {
		t.Fatalf("page down: offset = %d, want 10", v.Offset)
	}
	v.HalfPageDown()
	if v.Offset != 15 {
		t.Fatalf("half page down: offset = %d, want 15", v.Offset)
	}
	v.HalfPageUp()
	v.PageUp()
	if v.Offset != 0 {
		t.Fatalf("back to top: offset = %d, want 0", v.Offset)
	}
}

func TestGoToPercent(t *testing.T) {
	v := New(80, 10)
	v.SetTotalLines(110) // maxOffset = 100

	tests := []struct {
		percent int
		want    int
	}{
		{0, 0},
		{50, 50},
		{100, 100},
		{150, 100},
		{-5, 0},
	}
	for _, tt := range tests {
		v.GoToPercent(tt.percent)
		if v.Offset != tt.want {
			t.Fatalf("GoToPercent(%d): offset = %d, want %d", tt.percent, v.Offset, tt.want)
		}
	}
}

func TestScrollPercent(t *testing.T) {
	v := New(80, 10)

	// Empty and fully-fitting documents report 100.
	if got := v.ScrollPercent(); got != 100 {
		t.Fatalf("empty doc: percent = %d, want 100", got)
	}
	v.SetTotalLines(5)
	if got := v.ScrollPercent(); got != 100 {
		t.Fatalf("fitting doc: percent = %d, want 100", got)
	}

	v.SetTotalLines(30)
	if got := v.ScrollPercent(); got != 0 {
		t.Fatalf("top of long doc: percent = %d, want 0", got)
	}
	v.ScrollDown(10)
	if got := v.ScrollPercent(); got != 50 {
		t.Fatalf("middle: percent = %d, want 50", got)
	}
	v.GoToBottom()
	if got := v.ScrollPercent(); got != 100 {
		t.Fatalf("bottom: percent = %d, want 100", got)
	}
}

func TestResizePreservesClampedOffset(t *testing.T) {
	v := New(80, 10)
	v.SetTotalLines(40)
	v.GoToBottom()
	if v.Offset != 30 {
		t.Fatalf("offset = %d, want 30", v.Offset)
	}

	v.Resize(80, 35)
	if v.Offset != 5 {
		t.Fatalf("after grow: offset = %d, want 5", v.Offset)
	}

	v.Resize(80, 50)
	if v.Offset != 0 {
		t.Fatalf("after fitting: offset = %d, want 0", v.Offset)
	}
}

func TestSetTotalLinesClamps(t *testing.T) {
	v := New(80, 10)
	v.SetTotalLines(100)
	v.GoToBottom()

	v.SetTotalLines(20)
	if v.Offset != 10 {
		t.Fatalf("after shrink: offset = %d, want 10", v.Offset)
	}
	if v.CanScrollDown() {
		t.Fatal("expected bottom after shrink")
	}
	if !v.CanScrollUp() {
		t.Fatal("expected scrollable content above")
	}
}

func TestVisibleRange(t *testing.T) {
	v := New(80, 10)
	v.SetTotalLines(15)
	v.ScrollDown(8)
	start, end := v.VisibleRange()
	if start != 5 || end != 15 {
		t.Fatalf("visible range = [%d,%d), want [5,15)", start, end)
	}
}
