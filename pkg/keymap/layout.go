package keymap

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrOutOfBounds indicates a matrix position outside the layout.
var ErrOutOfBounds = errors.New("matrix position out of bounds")

// Layout maps key matrix positions to key codes.
type Layout struct {
	ID       uint8
	Name     string
	Rows     int
	Cols     int
	rowShift uint
	keymap   []Code
}

// NewLayout builds a layout from a row-major table of rows*cols codes.
func NewLayout(id uint8, name string, rows, cols int, table []Code) (*Layout, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid matrix %dx%d", rows, cols)
	}
	if len(table) != rows*cols {
		return nil, fmt.Errorf("layout %q: table has %d entries, want %d", name, len(table), rows*cols)
	}
	l := &Layout{
		ID:       id,
		Name:     name,
		Rows:     rows,
		Cols:     cols,
		rowShift: rowShift(cols),
	}
	l.keymap = make([]Code, rows<<l.rowShift)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			l.keymap[l.index(r, c)] = table[r*cols+c]
		}
	}
	return l, nil
}

// rowShift returns the smallest shift with 1<<shift >= cols.
func rowShift(cols int) uint {
	if cols <= 1 {
		return 0
	}
	return uint(bits.Len(uint(cols - 1)))
}

func (l *Layout) index(row, col int) int {
	return row<<l.rowShift + col
}

// RowShift returns the shift applied to the row when computing a scan code.
func (l *Layout) RowShift() uint {
	return l.rowShift
}

// ScanCode returns the linear index of (row, col). Positions outside the
// matrix are rejected.
func (l *Layout) ScanCode(row, col int) (int, error) {
	if row < 0 || row >= l.Rows || col < 0 || col >= l.Cols {
		return 0, fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfBounds, row, col, l.Rows, l.Cols)
	}
	return l.index(row, col), nil
}

// Lookup returns the key code bound to (row, col).
func (l *Layout) Lookup(row, col int) (Code, error) {
	sc, err := l.ScanCode(row, col)
	if err != nil {
		return KeyReserved, err
	}
	return l.keymap[sc], nil
}

// Codes returns the distinct key codes the layout can produce, excluding
// KeyReserved, in scan order.
func (l *Layout) Codes() []Code {
	seen := make(map[Code]bool)
	var out []Code
	for _, c := range l.keymap {
		if c == KeyReserved || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// v1Table is the first production keyboard matrix, 7 rows by 16 columns.
var v1Table = []Code{
	// row 0
	KeyM, KeyN, KeyEqual, KeyReserved, KeyGrave, KeyEqual, KeyReserved, KeyA,
	KeyReserved, KeyReserved, Key3, KeyY, KeyO, KeyReserved, KeyR, KeyReserved,
	// row 1
	Key9, KeyReserved, KeyL, KeyReserved, KeyMinus, KeyReserved, KeyDot, KeySlash,
	KeyReserved, KeyReserved, KeyReserved, KeyEnd, KeyReserved, KeySemicolon, KeyReserved, KeyReserved,
	// row 2
	KeyReserved, KeyReserved, KeyReserved, KeyReserved, KeyRightMeta, Key2, KeyReserved, KeyUp,
	KeyLeftAlt, KeyLeft, KeyApostrophe, KeyReserved, KeyReserved, KeyF, KeyEnter, KeyReserved,
	// row 3
	KeyReserved, KeyB, KeyReserved, KeyLeftShift, KeyReserved, Key6, KeyC, KeyReserved,
	KeySpace, KeyReserved, KeyX, Key4, KeyU, KeyD, KeyReserved, KeyReserved,
	// row 4
	KeyW, KeyCapsLock, KeyZ, KeyRightShift, Key5, KeyReserved, KeyT, KeyRight,
	KeyReserved, KeyDown, KeyReserved, KeyReserved, KeyK, KeyReserved, KeyRightAlt, KeyJ,
	// row 5
	KeyG, KeyReserved, Key8, KeyReserved, KeyEsc, Key0, KeyS, KeyReserved,
	KeyReserved, KeyReserved, KeyE, KeyReserved, KeyV, KeyI, KeyComma, KeyLeftCtrl,
	// row 6
	KeyH, KeyQ, KeyReserved, KeyReserved, Key7, KeyMinus, KeyBackslash, KeyReserved,
	KeyBackspace, KeyReserved, KeyP, Key1, KeyReserved, KeyTab, KeyReserved, KeyReserved,
}

var layouts = []*Layout{
	mustLayout(NewLayout(0, "v1", 7, 16, v1Table)),
}

func mustLayout(l *Layout, err error) *Layout {
	if err != nil {
		panic(err)
	}
	return l
}

// Select returns the layout with the given ID. Unknown IDs fall back to
// layout 0.
func Select(id uint8) *Layout {
	if int(id) < len(layouts) {
		return layouts[id]
	}
	return layouts[0]
}

// Count returns the number of defined layouts.
func Count() int {
	return len(layouts)
}
