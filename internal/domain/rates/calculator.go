package rates

import "currency-rates-service/internal/domain/model"

// Rate returns how many units of `to` one unit of `from` buys. The second
// result is false when either side is missing, zero or NaN; there is no
// from == to shortcut for currencies absent from the table.
func Rate(from, to model.Currency, rates model.Rates) (float64, bool) {
	fromRate, toRate := rates[from], rates[to]
	if !truthy(fromRate) || !truthy(toRate) {
		return 0, false
	}
	return fromRate / toRate, true
}

type Pair struct {
	From model.Currency
	To   model.Currency
	Rate float64
}

// Pairs computes every ordered pair of distinct currencies that resolves
// against the table.
func Pairs(currencies []model.Currency, rates model.Rates) []Pair {
	pairs := make([]Pair, 0, len(currencies)*len(currencies))
	for _, from := range currencies {
		for _, to := range currencies {
			if from == to {
				continue
			}
			rate, ok := Rate(from, to, rates)
			if !ok {
				continue
			}
			pairs = append(pairs, Pair{From: from, To: to, Rate: rate})
		}
	}
	return pairs
}
