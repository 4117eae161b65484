package domain

// VolumeRule maps a declared restaurant type to candidate per-visit volumes.
// Match is either the exact type or slash-separated keyword alternatives.
type VolumeRule struct {
	Match  string
	Values []int
}

// DefaultVolumes is used when no rule matches a declared type.
var DefaultVolumes = []int{1, 2}
