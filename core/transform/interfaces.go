// Package transform provides additional interfaces for preprocessing transforms.
// This file complements the core contracts in contract.go
package transform

// Invertible is the interface for transforms that can map outputs back
// to the input space.
type Invertible interface {
	// InverseTransform applies the transform in the reverse direction.
	InverseTransform(b *Batch) (*Batch, error)
}

// ParameterGetter is the interface for transforms that expose their configuration.
type ParameterGetter interface {
	// GetParams returns the transform's construction parameters.
	GetParams() map[string]interface{}
}

// Persistable is the interface for transforms that can be saved and loaded.
type Persistable interface {
	// Save saves the adapted state to a file.
	Save(path string) error

	// Load loads the adapted state from a file.
	Load(path string) error
}

// StateExporter is the interface for transforms that can round-trip their
// learned state through a portable envelope.
type StateExporter interface {
	// ExportState exports the learned state.
	ExportState() (*StateEnvelope, error)

	// ImportState restores the learned state from an envelope.
	ImportState(envelope *StateEnvelope) error
}

// OutputSized is the interface for transforms with a fixed output width.
// Variable-width transforms (index-row producers) do not implement it.
type OutputSized interface {
	// OutputDim returns the number of output features once adapted.
	OutputDim() int
}
