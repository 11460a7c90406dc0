package model

import "time"

// Rates maps a currency to how many Base units one unit of it buys.
type Rates map[Currency]float64

type RateSnapshot struct {
	Date  string `json:"date"`
	Rates Rates  `json:"rates"`
}

// RateHistory is ordered by date ascending with at most one snapshot per date.
type RateHistory []RateSnapshot

func (h RateHistory) Find(date string) (RateSnapshot, bool) {
	for _, s := range h {
		if s.Date == date {
			return s, true
		}
	}
	return RateSnapshot{}, false
}

func (h RateHistory) Has(date string) bool {
	_, ok := h.Find(date)
	return ok
}

// CacheEnvelope is the persisted cache document. LastUpdated is epoch millis.
type CacheEnvelope struct {
	History     RateHistory `json:"history"`
	LastUpdated int64       `json:"lastUpdated"`
}

func NewCacheEnvelope(history RateHistory, lastUpdated time.Time) *CacheEnvelope {
	return &CacheEnvelope{
		History:     history,
		LastUpdated: lastUpdated.UnixMilli(),
	}
}

func (e *CacheEnvelope) LastUpdatedTime() time.Time {
	return time.UnixMilli(e.LastUpdated)
}

type PairRate struct {
	From        Currency `json:"from"`
	To          Currency `json:"to"`
	Rate        float64  `json:"rate"`
	LastUpdated int64    `json:"lastUpdated"`
}

type HistoryPoint struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

type RateSeries struct {
	From   Currency       `json:"from"`
	To     Currency       `json:"to"`
	Points []HistoryPoint `json:"points"`
}

// PersistedRate is one row of the write-through store, unique per
// (Date, From, To).
type PersistedRate struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	From      Currency  `json:"from"`
	To        Currency  `json:"to"`
	Rate      float64   `json:"rate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RateFilter selects stored rows; empty fields match everything.
type RateFilter struct {
	Date string
	From Currency
	To   Currency
}

type StoredPairRate struct {
	From      Currency `json:"from"`
	To        Currency `json:"to"`
	Rate      float64  `json:"rate"`
	Date      string   `json:"date"`
	UpdatedAt string   `json:"updatedAt"`
}

type DayRates struct {
	Date  string          `json:"date"`
	Rates []PersistedRate `json:"rates"`
}

type RefreshReport struct {
	Message string `json:"message"`
	Date    string `json:"-"`
	Pairs   int    `json:"-"`
	Stored  int    `json:"-"`
	Failed  int    `json:"-"`
}

// RatesQuery is a point query. Empty From/To asks for the whole table and an
// empty Date means today.
type RatesQuery struct {
	From Currency
	To   Currency
	Date string
}

func (q RatesQuery) HasPair() bool {
	return q.From != "" && q.To != ""
}

// RatesResult carries exactly one of Pair, Envelope or Snapshot. Stale marks
// a cached envelope served because the upstream fetch failed.
type RatesResult struct {
	Pair     *PairRate
	Envelope *CacheEnvelope
	Snapshot *RateSnapshot
	Stale    bool
}

// HistoryQuery is a range query over the cached window. Empty bounds are open.
type HistoryQuery struct {
	From  Currency
	To    Currency
	Start string
	End   string
}
