package serialmux

import (
	"encoding/json"
	"fmt"
	"log"
)

// CurrentState holds the latest info/status values received from the device
// and is intentionally package-level so admin routes or tests can inspect it.
var CurrentState map[string]any

// HandleInfoResponse merges a firmware info/status line (a JSON object
// without axis fields, e.g. the response to a rate or clock command) into
// CurrentState.
func HandleInfoResponse(payload string) error {
	var infoValues map[string]any

	if err := json.Unmarshal([]byte(payload), &infoValues); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %v", err)
	}

	if CurrentState == nil {
		CurrentState = make(map[string]any)
	}
	for k, v := range infoValues {
		CurrentState[k] = v
	}

	log.Printf("Info Line: %+v", payload)

	return nil
}
