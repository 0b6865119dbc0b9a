package cache

import "strings"

// Keyer builds cache keys for pipeline stages.
type Keyer interface {
	// LayoutKey returns the key of the layout computed for a storyboard.
	LayoutKey(boardHash string, opts LayoutKeyOpts) string

	// ArtifactKey returns the key of one rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds everything besides the storyboard that changes a
// computed layout.
type LayoutKeyOpts struct {
	// ConfigHash is the content hash of the sizing and spacing config.
	ConfigHash string `json:"config_hash"`
}

// ArtifactKeyOpts holds everything besides the layout that changes a
// rendered artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Detailed bool    `json:"detailed,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<hash>".
func (DefaultKeyer) LayoutKey(boardHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", boardHash, opts)
}

// ArtifactKey returns "artifact:<format>:<hash>". The format stays readable
// so artifacts of one kind can be found in the backend.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+strings.ToLower(opts.Format), layoutHash, opts)
}
