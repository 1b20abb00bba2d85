package flights

// PriceBook is the per-type pricing a total is derived from, either an
// airline's own prices or the account defaults.
type PriceBook struct {
	Adult     float64
	Child     float64
	Infant    float64
	Tax       float64
	Surcharge float64
}

// BasePrice returns the fare for a passenger type.
func (p PriceBook) BasePrice(passengerType string) float64 {
	if passengerType == TypeChild {
		return p.Child
	}
	return p.Adult
}

// ComputeTotal derives the display total for a passenger. Children
// carry no infants, so their count is forced to zero regardless of what
// the caller held before switching type. The result is an input assist:
// the submitted total is stored verbatim and may be overridden.
func ComputeTotal(passengerType string, book PriceBook, tax, surcharge float64, infantCount int) float64 {
	if passengerType == TypeChild {
		infantCount = 0
	}
	if infantCount < 0 {
		infantCount = 0
	}
	return book.BasePrice(passengerType) + tax + surcharge + float64(infantCount)*book.Infant
}
