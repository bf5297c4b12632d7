package strategy

// Descriptor identifies a costing strategy. Strategies embed it so the
// registry and the valuation reports can name them without knowing the type.
type Descriptor struct {
	name        string
	method      CostMethod
	layered     bool
	description string
}

// NewDescriptor describes a strategy serving method.
// layered reports whether the strategy draws from receipt layers.
func NewDescriptor(name string, method CostMethod, layered bool, description string) Descriptor {
	return Descriptor{
		name:        name,
		method:      method,
		layered:     layered,
		description: description,
	}
}

// Name returns the registry name, e.g. "fifo"
func (d Descriptor) Name() string {
	return d.name
}

// Method returns the costing method the strategy serves
func (d Descriptor) Method() CostMethod {
	return d.method
}

// UsesLayers returns true if the strategy consumes receipt layers
func (d Descriptor) UsesLayers() bool {
	return d.layered
}

func (d Descriptor) Description() string {
	return d.description
}
