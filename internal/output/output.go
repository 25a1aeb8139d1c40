// Package output holds the sinks a collector can feed decoded records into.
package output

// Output consumes decoded records. Feed is called from a single goroutine
// per output; implementations do not need to be safe for concurrent use.
type Output interface {
	Name() string
	Feed(record map[string]any) error
	Close() error
}

// Null discards every record. Useful for pure load testing of the intake
// path.
type Null struct{}

func (Null) Name() string { return "null" }

func (Null) Feed(_ map[string]any) error { return nil }

func (Null) Close() error { return nil }
