package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"

	"prop-simulator/internal/domain"
)

// runIDBytes is the number of hash bytes kept in a run ID.
const runIDBytes = 16

// ComputeRunID computes a deterministic run_id for a resolved config.
// Formula: base58(SHA256(config_json|SHA256(trade_data))[:16])
// Inline CSV data and the worker count are excluded from config_json:
// the former is covered by the data digest, the latter never changes results.
// Callers must resolve a zero seed before hashing, otherwise unseeded runs collide.
func ComputeRunID(cfg domain.SimulationConfig, tradeData []byte) (string, error) {
	cfg.CSVData = ""
	cfg.Workers = 0

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}

	dataHash := sha256.Sum256(tradeData)
	data := fmt.Sprintf("%s|%s", cfgJSON, hex.EncodeToString(dataHash[:]))

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:runIDBytes]), nil
}
