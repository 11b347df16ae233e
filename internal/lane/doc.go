// Package lane owns one serial lane of the receiver.
//
// Ownership boundary:
// - oversampled window -> code word (Deserializer)
//
// - phase search and lock tracking (Aligner)
//
// - per-cycle classified output (Channel)
//
// Per tick order: deserialize -> decode -> align -> classify. Phase changes
// decided in a tick are applied by the deserializer on the next tick.
//
// Lanes never share state; the receiver combines only their outputs.
package lane
