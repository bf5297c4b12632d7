package ledger

// ValuationMethod is the policy used to assign a cost to issued or consumed stock
type ValuationMethod string

const (
	// ValuationFIFO consumes the oldest cost layers first
	ValuationFIFO ValuationMethod = "FIFO"
	// ValuationLIFO consumes the newest cost layers first
	ValuationLIFO ValuationMethod = "LIFO"
	// ValuationAverage values stock at the moving weighted-average cost
	ValuationAverage ValuationMethod = "AVG"
)

// String returns the string representation of the valuation method
func (v ValuationMethod) String() string {
	return string(v)
}

// IsValid returns true if the valuation method is known
func (v ValuationMethod) IsValid() bool {
	switch v {
	case ValuationFIFO, ValuationLIFO, ValuationAverage:
		return true
	}
	return false
}

// UsesLayers returns true if the method keeps per-receipt cost layers
func (v ValuationMethod) UsesLayers() bool {
	return v == ValuationFIFO || v == ValuationLIFO
}

// Description returns a human-readable description of the valuation method
func (v ValuationMethod) Description() string {
	switch v {
	case ValuationFIFO:
		return "First-In-First-Out: oldest receipt costs are consumed first"
	case ValuationLIFO:
		return "Last-In-First-Out: newest receipt costs are consumed first"
	case ValuationAverage:
		return "Weighted average: cost recalculated on every receipt"
	default:
		return "Unknown valuation method"
	}
}
