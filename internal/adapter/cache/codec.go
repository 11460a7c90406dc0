package cache

import (
	"encoding/json"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/pkg/logger"
)

func encodeEnvelope(envelope *model.CacheEnvelope) ([]byte, error) {
	return json.MarshalIndent(envelope, "", "  ")
}

// decodeEnvelope treats undecodable data as an absent cache.
func decodeEnvelope(data []byte, log *logger.Logger) *model.CacheEnvelope {
	if len(data) == 0 {
		return nil
	}

	var envelope *model.CacheEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		log.Warn("Discarding corrupt rate cache", "error", err)
		return nil
	}

	return envelope
}
