package serialmux

import "strings"

const (
	EventTypeSampleJSON = "sample_json"
	EventTypeSampleCSV  = "sample_csv"
	EventTypeInfo       = "info"
	EventTypeUnknown    = "unknown"
)

// ClassifyPayload inspects a payload string and returns a simple event type
// token. Sample lines are either JSON objects carrying axis fields or a
// sample timestamp (axes absent default to zero), or flat comma-separated
// records; any other JSON-shaped line is treated as a firmware info/status
// response.
func ClassifyPayload(payload string) string {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "{") {
		if strings.Contains(payload, `"ax"`) || strings.Contains(payload, `"gx"`) ||
			strings.Contains(payload, `"timestamp_ms"`) {
			return EventTypeSampleJSON
		}
		return EventTypeInfo
	}
	if strings.Count(payload, ",") >= 6 {
		return EventTypeSampleCSV
	}
	return EventTypeUnknown
}

// IsSample reports whether the payload looks like a decodable sample line.
func IsSample(payload string) bool {
	t := ClassifyPayload(payload)
	return t == EventTypeSampleJSON || t == EventTypeSampleCSV
}
