package rates

import (
	"currency-rates-service/internal/domain/model"
	"currency-rates-service/pkg/utils"
)

const DefaultRetentionDays = 30

// Prune keeps the snapshots dated strictly less than retentionDays before
// today. Snapshots with unparseable dates are dropped.
func Prune(history model.RateHistory, retentionDays int, today string) model.RateHistory {
	kept := make(model.RateHistory, 0, len(history)+1)
	for _, s := range history {
		if utils.IsWithinDays(s.Date, today, retentionDays) {
			kept = append(kept, s)
		}
	}
	return kept
}

// Merge prunes history, drops any snapshot already dated today and appends
// snapshot. The input slice is not modified.
func Merge(history model.RateHistory, snapshot model.RateSnapshot, retentionDays int, today string) model.RateHistory {
	pruned := Prune(history, retentionDays, today)

	merged := pruned[:0]
	for _, s := range pruned {
		if s.Date != today {
			merged = append(merged, s)
		}
	}
	return append(merged, snapshot)
}
