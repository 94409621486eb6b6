package pkg

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EncodeHistory serialises the intake notes and transcript of a session into
// the medical_history blob stored on the durable record.
func EncodeHistory(p Profile, messages []Message) (string, error) {
	h := History{
		PriorConditions: p.PriorConditions,
		PriorSurgeries:  p.PriorSurgeries,
		Messages:        messages,
	}
	b, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("encode history: %w", err)
	}
	return string(b), nil
}

// DecodeHistory parses a medical_history blob.  Blobs that are not JSON are
// kept verbatim as notes so that records written by hand still hydrate.
func DecodeHistory(blob string) *History {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return &History{}
	}
	var h History
	if err := json.Unmarshal([]byte(blob), &h); err != nil {
		return &History{Notes: blob}
	}
	return &h
}
