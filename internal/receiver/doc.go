// Package receiver owns the three-lane receive core.
//
// Ownership boundary:
// - per-lane channels and their reset wiring (reset = !linkReady)
//
// - the frame synchronizer and its PixelSample register
//
// - read-only status for diagnostics
//
// Tick order: lane 0, lane 1, lane 2, then the synchronizer. A tick either
// advances every lane or none of them.
package receiver
