package video

// Stats summarizes assembled frames and how many matched a reference.
type Stats struct {
	Emitted    uint64 `json:"emitted"`
	Complete   uint64 `json:"complete"`
	Matched    uint64 `json:"matched"`
	Mismatched uint64 `json:"mismatched"`
	LastDigest string `json:"last_digest,omitempty"`
}
