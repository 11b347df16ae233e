// Package stimulus generates transmit-side link signals for the receiver.
//
// Ownership boundary:
// - video timing and test patterns
//
// - pixel -> per-lane code words (lane 0 carries sync)
//
// - code words -> oversampled lane samples with phase offset and edge jitter
//
// The receiver never depends on this package; tests and commands drive it.
package stimulus
