// Package advisor reports environmental signals used to gate background
// work. Every signal is optional: a nil pointer means the platform cannot
// answer, and callers skip that specific check rather than blocking.
package advisor

// ConnectionClass coarsely classifies the current link.
type ConnectionClass string

const (
	ConnectionUnmetered ConnectionClass = "unmetered"
	ConnectionMetered   ConnectionClass = "metered"
)

// Signals carries one reading of the environment.
type Signals struct {
	Online       *bool
	Connection   *ConnectionClass
	PowerOK      *bool
	StorageUsage *float64 // fraction of quota in use, 0..1
}

// Advisor supplies environment signals on demand.
type Advisor interface {
	Signals() Signals
}

// Permissive is the default advisor for environments lacking platform
// signals: it reports nothing, so no gate ever blocks on it.
type Permissive struct{}

func (Permissive) Signals() Signals { return Signals{} }

// Static returns a fixed reading; used in tests and for configured overrides.
type Static struct {
	Reading Signals
}

func (s Static) Signals() Signals { return s.Reading }

// Bool is a convenience for building optional boolean signals.
func Bool(v bool) *bool { return &v }

// Usage is a convenience for building optional storage-usage signals.
func Usage(v float64) *float64 { return &v }

// Class is a convenience for building optional connection signals.
func Class(v ConnectionClass) *ConnectionClass { return &v }
