// Package keymap maps keyboard matrix positions to logical key codes.
//
// A Layout is an immutable table indexed by row<<shift + column, where shift
// is the number of bits needed to address the layout's columns. Positions
// are bounds-checked against the matrix before the table is touched.
package keymap
