package serialmux

import "testing"

func TestClassifyPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"json sample", `{"timestamp_ms":1,"ax":100,"ay":0,"az":0,"gx":0,"gy":0,"gz":0}`, EventTypeSampleJSON},
		{"json sample gyro only", `{"gx":5}`, EventTypeSampleJSON},
		{"json sample timestamp only", `{"timestamp_ms":1000}`, EventTypeSampleJSON},
		{"csv sample", "1000,1,2,3,4,5,6", EventTypeSampleCSV},
		{"csv sample with whitespace", "  1000,1,2,3,4,5,6  ", EventTypeSampleCSV},
		{"info line", `{"rate":20,"clock_synced":true}`, EventTypeInfo},
		{"short csv", "1,2,3", EventTypeUnknown},
		{"plain text", "boot ok", EventTypeUnknown},
		{"empty", "", EventTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyPayload(tt.payload); got != tt.want {
				t.Errorf("ClassifyPayload(%q) = %q, want %q", tt.payload, got, tt.want)
			}
		})
	}
}

func TestIsSample(t *testing.T) {
	if !IsSample("1000,1,2,3,4,5,6") {
		t.Error("csv line should be a sample")
	}
	if !IsSample(`{"ax":1}`) {
		t.Error("json axis line should be a sample")
	}
	if IsSample(`{"rate":20}`) {
		t.Error("info line should not be a sample")
	}
}

func TestHandleInfoResponse(t *testing.T) {
	CurrentState = nil
	if err := HandleInfoResponse(`{"rate":20}`); err != nil {
		t.Fatalf("HandleInfoResponse failed: %v", err)
	}
	if CurrentState["rate"] != float64(20) {
		t.Errorf("CurrentState[rate] = %v, want 20", CurrentState["rate"])
	}

	// subsequent responses merge rather than replace
	if err := HandleInfoResponse(`{"clock_synced":true}`); err != nil {
		t.Fatalf("HandleInfoResponse failed: %v", err)
	}
	if CurrentState["rate"] != float64(20) || CurrentState["clock_synced"] != true {
		t.Errorf("CurrentState not merged: %+v", CurrentState)
	}

	if err := HandleInfoResponse("not json"); err == nil {
		t.Error("malformed info line should error")
	}
}
