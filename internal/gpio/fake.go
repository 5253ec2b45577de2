package gpio

import "github.com/sweeney/greenhouse-bridge/internal/logic"

// FakeActuators is a test double that records applied commands.
type FakeActuators struct {
	// Commands contains every command applied, in order.
	Commands []logic.Command
	// ApplyError, if set, is returned by Apply and the command is not recorded.
	ApplyError error
	// Closed tracks if Close was called
	Closed bool
}

// NewFakeActuators creates an empty FakeActuators.
func NewFakeActuators() *FakeActuators {
	return &FakeActuators{}
}

// Apply records the command.
func (f *FakeActuators) Apply(cmd logic.Command) error {
	if f.ApplyError != nil {
		return f.ApplyError
	}
	f.Commands = append(f.Commands, cmd)
	return nil
}

// Last returns the most recently applied command.
func (f *FakeActuators) Last() (logic.Command, bool) {
	if len(f.Commands) == 0 {
		return logic.Command{}, false
	}
	return f.Commands[len(f.Commands)-1], true
}

// Close marks the actuators as closed.
func (f *FakeActuators) Close() error {
	f.Closed = true
	return nil
}
