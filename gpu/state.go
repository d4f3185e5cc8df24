// SPDX-License-Identifier: MIT

package gpu

import "fmt"

// State is the stage a Multiplier has reached.
type State int

const (
	Uninitialized State = iota
	DeviceReady
	BuffersLoaded
	Dispatched
	ResultMapped
	Done
)

var stateNames = [...]string{
	Uninitialized: "Uninitialized",
	DeviceReady:   "DeviceReady",
	BuffersLoaded: "BuffersLoaded",
	Dispatched:    "Dispatched",
	ResultMapped:  "ResultMapped",
	Done:          "Done",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// stateErrorf reports a stage called from the wrong state.
func stateErrorf(op string, got State, want ...State) error {
	return fmt.Errorf("gpu: %s: in state %s, want %v: %w", op, got, want, ErrInvalidState)
}
