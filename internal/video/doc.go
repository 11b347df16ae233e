// Package video owns the frame sink downstream of the receiver.
//
// Ownership boundary:
// - committed pixels -> lines -> frames
//
// - frame digests and snapshots
//
// It measures the geometry it receives and never classifies video modes.
package video
