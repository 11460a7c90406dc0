package rates

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"currency-rates-service/internal/domain/model"
)

var (
	ErrUpstreamFetch  = errors.New("upstream fetch failed")
	ErrUpstreamFormat = errors.New("upstream response malformed")
)

// Document is the raw provider payload keyed by "<PIVOT><CODE>". Entries are
// decoded lazily and only for their Exrate field.
type Document map[string]json.RawMessage

type quote struct {
	Exrate float64 `json:"Exrate"`
}

func ParseDocument(body []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFormat, err)
	}
	return doc, nil
}

// Exrate returns the quote for key. A missing entry, an undecodable entry and
// a zero, NaN or infinite rate are all reported as absent.
func (d Document) Exrate(key string) (float64, bool) {
	raw, ok := d[key]
	if !ok {
		return 0, false
	}
	var q quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return 0, false
	}
	return q.Exrate, truthy(q.Exrate)
}

// Normalize converts pivot quotes into a table of base units per unit of each
// currency. Currencies without a usable quote are left out.
func Normalize(doc Document, currencies []model.Currency, pivot, base model.Currency) (model.Rates, error) {
	anchorKey := pivot.String() + base.String()
	pivotBase, ok := doc.Exrate(anchorKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", ErrUpstreamFormat, anchorKey)
	}

	rates := make(model.Rates, len(currencies))
	for _, cur := range currencies {
		if cur == base {
			rates[cur] = 1
			continue
		}
		exrate, ok := doc.Exrate(pivot.String() + cur.String())
		if !ok {
			continue
		}
		if rate := pivotBase / exrate; truthy(rate) {
			rates[cur] = rate
		}
	}
	return rates, nil
}

// truthy reports whether v is a usable rate: finite and non-zero.
func truthy(v float64) bool {
	return v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
