package serialmux

import (
	"testing"

	"go.bug.st/serial"
)

func TestPortOptionsNormalizeDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if opts.BaudRate != 115200 {
		t.Errorf("default baud rate = %d, want 115200", opts.BaudRate)
	}
	if opts.DataBits != 8 || opts.StopBits != 1 || opts.Parity != "N" {
		t.Errorf("unexpected defaults: %+v", opts)
	}
}

func TestPortOptionsNormalizeValidation(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
	}{
		{"bad data bits", PortOptions{DataBits: 9}},
		{"bad stop bits", PortOptions{StopBits: 3}},
		{"bad parity", PortOptions{Parity: "X"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.opts.Normalize(); err == nil {
				t.Errorf("Normalize(%+v) should fail", tt.opts)
			}
		})
	}
}

func TestPortOptionsNormalizeParityAliases(t *testing.T) {
	for _, in := range []string{"n", "none", "NONE", "N"} {
		opts, err := PortOptions{Parity: in}.Normalize()
		if err != nil {
			t.Fatalf("Normalize parity %q failed: %v", in, err)
		}
		if opts.Parity != "N" {
			t.Errorf("parity %q normalized to %q, want N", in, opts.Parity)
		}
	}
}

func TestPortOptionsEqual(t *testing.T) {
	a := PortOptions{BaudRate: 115200, Parity: "none"}
	b := PortOptions{BaudRate: 115200, Parity: "N", DataBits: 8, StopBits: 1}
	if !a.Equal(b) {
		t.Error("equivalent options should compare equal after normalization")
	}
	c := PortOptions{BaudRate: 9600}
	if a.Equal(c) {
		t.Error("different baud rates should not compare equal")
	}
}

func TestPortOptionsSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 115200, Parity: "E"}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode failed: %v", err)
	}
	if mode.BaudRate != 115200 {
		t.Errorf("mode baud = %d, want 115200", mode.BaudRate)
	}
	if mode.Parity != serial.EvenParity {
		t.Errorf("mode parity = %v, want even", mode.Parity)
	}
}
