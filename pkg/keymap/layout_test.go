package keymap

import (
	"errors"
	"testing"
)

func TestSelect(t *testing.T) {
	l := Select(0)
	if l.Rows != 7 || l.Cols != 16 {
		t.Fatalf("layout 0 is %dx%d, want 7x16", l.Rows, l.Cols)
	}
	if l.RowShift() != 4 {
		t.Errorf("RowShift() = %d, want 4", l.RowShift())
	}

	for _, id := range []uint8{1, 2, 42, 255} {
		if got := Select(id); got != l {
			t.Errorf("Select(%d) did not fall back to layout 0", id)
		}
	}
}

func TestLookup(t *testing.T) {
	l := Select(0)
	tests := []struct {
		row, col int
		want     Code
	}{
		{0, 0, KeyM},
		{0, 1, KeyN},
		{2, 14, KeyEnter},
		{3, 8, KeySpace},
		{4, 1, KeyCapsLock},
		{6, 13, KeyTab},
		{0, 3, KeyReserved},
	}

	for _, tt := range tests {
		got, err := l.Lookup(tt.row, tt.col)
		if err != nil {
			t.Errorf("Lookup(%d,%d) failed: %v", tt.row, tt.col, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Lookup(%d,%d) = %s, want %s", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestLookupTotalInBounds(t *testing.T) {
	l := Select(0)
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Cols; c++ {
			first, err := l.Lookup(r, c)
			if err != nil {
				t.Fatalf("Lookup(%d,%d) failed: %v", r, c, err)
			}
			again, _ := l.Lookup(r, c)
			if first != again {
				t.Fatalf("Lookup(%d,%d) not deterministic", r, c)
			}
		}
	}
}

func TestLookupOutOfBounds(t *testing.T) {
	l := Select(0)
	// Row 7 fits the 3-bit wire field but not the 7-row matrix.
	positions := [][2]int{{7, 0}, {-1, 0}, {0, 16}, {0, -1}, {100, 100}}
	for _, p := range positions {
		code, err := l.Lookup(p[0], p[1])
		if !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Lookup(%d,%d) error = %v, want ErrOutOfBounds", p[0], p[1], err)
		}
		if code != KeyReserved {
			t.Errorf("Lookup(%d,%d) = %s on error", p[0], p[1], code)
		}
	}
}

func TestScanCode(t *testing.T) {
	l := Select(0)
	sc, err := l.ScanCode(2, 5)
	if err != nil {
		t.Fatalf("ScanCode failed: %v", err)
	}
	if sc != 2<<4+5 {
		t.Errorf("ScanCode(2,5) = %d, want %d", sc, 2<<4+5)
	}
}

func TestNewLayout(t *testing.T) {
	t.Run("non power of two columns", func(t *testing.T) {
		l, err := NewLayout(1, "test", 2, 5, []Code{
			KeyA, KeyB, KeyC, KeyD, KeyE,
			KeyF, KeyG, KeyH, KeyI, KeyJ,
		})
		if err != nil {
			t.Fatalf("NewLayout failed: %v", err)
		}
		if l.RowShift() != 3 {
			t.Errorf("RowShift() = %d, want 3", l.RowShift())
		}
		if code, _ := l.Lookup(1, 4); code != KeyJ {
			t.Errorf("Lookup(1,4) = %s, want KEY_J", code)
		}
		if _, err := l.Lookup(0, 5); !errors.Is(err, ErrOutOfBounds) {
			t.Error("column 5 must be out of bounds even though the shift leaves room")
		}
	})

	t.Run("wrong table size", func(t *testing.T) {
		if _, err := NewLayout(1, "bad", 2, 2, []Code{KeyA}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestCodes(t *testing.T) {
	codes := Select(0).Codes()
	seen := make(map[Code]bool)
	for _, c := range codes {
		if c == KeyReserved {
			t.Error("Codes() must not include KEY_RESERVED")
		}
		if seen[c] {
			t.Errorf("duplicate code %s", c)
		}
		seen[c] = true
	}
	// KEY_EQUAL and KEY_MINUS are bound twice in v1.
	if !seen[KeyEqual] || !seen[KeyMinus] || !seen[KeyCapsLock] {
		t.Error("expected codes missing")
	}
}
