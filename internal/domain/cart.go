package domain

// CartSnapshot maps a product identifier to a positive quantity.
// A missing key means zero; zero is never stored.
type CartSnapshot map[string]int

// Clone returns an independent copy with non-positive entries dropped.
func (c CartSnapshot) Clone() CartSnapshot {
	out := make(CartSnapshot, len(c))
	for id, qty := range c {
		if qty > 0 {
			out[id] = qty
		}
	}
	return out
}

// Count sums all quantities.
func (c CartSnapshot) Count() int {
	total := 0
	for _, qty := range c {
		total += qty
	}
	return total
}
