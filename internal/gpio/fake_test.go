package gpio

import (
	"errors"
	"testing"

	"github.com/sweeney/greenhouse-bridge/internal/bus"
	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

func TestFakeActuatorsRecords(t *testing.T) {
	f := NewFakeActuators()
	if _, ok := f.Last(); ok {
		t.Error("expected no command before Apply")
	}

	cmds := []logic.Command{{PumpOn: true}, {PumpOn: true, FanOn: true}, {}}
	for _, c := range cmds {
		if err := f.Apply(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(f.Commands) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(f.Commands))
	}
	last, ok := f.Last()
	if !ok || last != (logic.Command{}) {
		t.Errorf("Last: got %+v ok=%v", last, ok)
	}
}

func TestFakeActuatorsError(t *testing.T) {
	f := NewFakeActuators()
	f.ApplyError = errors.New("line busy")
	if err := f.Apply(logic.Command{PumpOn: true}); err == nil {
		t.Error("expected error to be returned")
	}
	if len(f.Commands) != 0 {
		t.Errorf("failed apply should not be recorded, got %d", len(f.Commands))
	}
}

func TestFakeActuatorsClose(t *testing.T) {
	f := NewFakeActuators()
	if f.Closed {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestCommandLevels(t *testing.T) {
	tests := []struct {
		cmd       logic.Command
		pump, fan int
	}{
		{logic.Command{}, 0, 0},
		{logic.Command{PumpOn: true}, 1, 0},
		{logic.Command{FanOn: true}, 0, 1},
		{logic.Command{PumpOn: true, FanOn: true}, 1, 1},
	}
	for _, tt := range tests {
		got := commandLevels(tt.cmd)
		if got[0] != tt.pump || got[1] != tt.fan {
			t.Errorf("commandLevels(%+v): got %v, want [%d %d]", tt.cmd, got, tt.pump, tt.fan)
		}
	}
}

func TestDefaultBusPinsMatchWidth(t *testing.T) {
	if len(DefaultBusPins) != bus.Width {
		t.Errorf("DefaultBusPins: got %d pins, want %d", len(DefaultBusPins), bus.Width)
	}
	seen := map[int]bool{DefaultPinPump: true, DefaultPinFan: true}
	for _, p := range DefaultBusPins {
		if seen[p] {
			t.Errorf("pin %d assigned twice", p)
		}
		seen[p] = true
	}
}
