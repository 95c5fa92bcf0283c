package bridge

import "testing"

func TestTrackerGates(t *testing.T) {
	tests := []struct {
		state       State
		canSendTask bool
		canBuffer   bool
	}{
		{StateIdle, false, false},
		{StateConnecting, false, true},
		{StateConnected, false, true},
		{StateSessionStarting, false, true},
		{StateSessionActive, true, false},
		{StateSessionEnding, false, false},
		{StateClosed, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			tr := tracker{state: tt.state}
			if got := tr.canSendTask(); got != tt.canSendTask {
				t.Errorf("canSendTask = %v, want %v", got, tt.canSendTask)
			}
			if got := tr.canBuffer(); got != tt.canBuffer {
				t.Errorf("canBuffer = %v, want %v", got, tt.canBuffer)
			}
		})
	}
}

func TestTrackerStartSessionGate(t *testing.T) {
	tr := tracker{state: StateConnected}
	if tr.canStartSession() {
		t.Error("start_session allowed before connection established")
	}
	tr.established = true
	if !tr.canStartSession() {
		t.Error("start_session blocked after connection established")
	}
}

func TestTrackerSessionFinished(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  State
	}{
		{"requested finish completes", StateSessionEnding, StateClosed},
		{"server-side finish drops to connected", StateSessionActive, StateConnected},
		{"no session, no change", StateConnected, StateConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tracker{state: tt.state}
			tr.onSessionFinished()
			if tr.state != tt.want {
				t.Errorf("state = %v, want %v", tr.state, tt.want)
			}
		})
	}
}

func TestTrackerAdoptSessionID(t *testing.T) {
	tr := tracker{sessionID: "session_1"}
	tr.adoptSessionID("")
	if tr.sessionID != "session_1" {
		t.Errorf("empty server id overwrote client id: %q", tr.sessionID)
	}
	tr.adoptSessionID("srv-abc")
	if tr.sessionID != "srv-abc" {
		t.Errorf("server id not adopted: %q", tr.sessionID)
	}
}

func TestStateString(t *testing.T) {
	if StateSessionActive.String() != "session_active" {
		t.Errorf("String() = %q", StateSessionActive.String())
	}
	if State(99).String() != "unknown" {
		t.Errorf("unknown state String() = %q", State(99).String())
	}
}
