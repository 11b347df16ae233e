// Package bench drives a receiver from a feed of oversampled lane windows,
// either a live stimulus source or a recorded capture, and checks the
// frames it assembles against the transmitted reference.
package bench
