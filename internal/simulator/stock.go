package simulator

// stockBook owns the stock levels of one entity kind for the duration of a phase.
type stockBook struct {
	order  []string
	levels map[string]float64
}

func newStockBook(ids []string, initial func(id string) float64) *stockBook {
	b := &stockBook{
		order:  append([]string(nil), ids...),
		levels: make(map[string]float64, len(ids)),
	}
	for _, id := range ids {
		if initial != nil {
			b.levels[id] = initial(id)
		} else {
			b.levels[id] = 0
		}
	}
	return b
}

func (b *stockBook) level(id string) float64 {
	return b.levels[id]
}

func (b *stockBook) add(id string, qty float64) {
	b.levels[id] += qty
}

// remove takes qty out of stock, flooring at zero.
func (b *stockBook) remove(id string, qty float64) {
	b.levels[id] -= qty
	if b.levels[id] < 0 {
		b.levels[id] = 0
	}
}

// snapshot copies the current levels.
func (b *stockBook) snapshot() map[string]float64 {
	out := make(map[string]float64, len(b.levels))
	for id, v := range b.levels {
		out[id] = v
	}
	return out
}
