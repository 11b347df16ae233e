// Package tmds owns the 10-bit line code.
//
// Ownership boundary:
// - code word classification (control, data, invalid)
//
// - the canonical encode table used to build the decode table
//
// Decode is a pure lookup and never fails; unknown words classify as Invalid.
package tmds
