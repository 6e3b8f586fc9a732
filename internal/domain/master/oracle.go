package master

import "context"

// ExistenceResult is a live answer from the Tally gateway. Success=false
// means the gateway could not be asked (down, timed out, malformed reply)
// and must never be read as "does not exist".
type ExistenceResult struct {
	Exists  bool
	Success bool
}

// NameRecord is one master name returned by a bulk collection export
type NameRecord struct {
	Name   string
	Parent string
}

// ExistenceOracle asks Tally whether masters exist. Implementations are
// side-effect free on the remote side.
type ExistenceOracle interface {
	// CheckExists queries the gateway for a single master by name
	CheckExists(ctx context.Context, kind Kind, name string) (ExistenceResult, error)
	// FetchNames exports every name of a kind for cache refreshes
	FetchNames(ctx context.Context, kind Kind) ([]NameRecord, error)
	// Ping reports whether the gateway is reachable at all
	Ping(ctx context.Context) error
}
