package validation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cloudx-io/doubleauction/auctionapi"
)

//go:embed pcrs.json
var builtinPCRConfig []byte

// PCRSet is the measurement triple of one released node image.
type PCRSet struct {
	PCR0       string `json:"pcr0"`
	PCR1       string `json:"pcr1"`
	PCR2       string `json:"pcr2"`
	CommitHash string `json:"commit_hash"` // repo commit the image was built from
}

// Matches compares the image, kernel and application measurements.
func (s PCRSet) Matches(p auctionapi.PCRs) bool {
	return s.PCR0 == p.ImageFileHash && s.PCR1 == p.KernelHash && s.PCR2 == p.ApplicationHash
}

// PCRConfig is the layout of pcrs.json.
type PCRConfig struct {
	PCRSets []PCRSet `json:"pcr_sets"`
}

func parsePCRConfig(data []byte) ([]PCRSet, error) {
	var cfg PCRConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse PCR config: %w", err)
	}
	if len(cfg.PCRSets) == 0 {
		return nil, fmt.Errorf("PCR config lists no PCR sets")
	}
	return cfg.PCRSets, nil
}

// DefaultPCRs returns the PCR sets shipped with this package.
func DefaultPCRs() ([]PCRSet, error) {
	return parsePCRConfig(builtinPCRConfig)
}

// LoadPCRsFromFile reads PCR sets from a file laid out like pcrs.json.
func LoadPCRsFromFile(path string) ([]PCRSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read PCR config: %w", err)
	}
	return parsePCRConfig(data)
}

// MatchPCRs returns the index of the first set in known that pcrs matches,
// or -1.
func MatchPCRs(pcrs auctionapi.PCRs, known []PCRSet) int {
	for i, set := range known {
		if set.Matches(pcrs) {
			return i
		}
	}
	return -1
}
