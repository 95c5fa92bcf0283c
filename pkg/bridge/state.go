package bridge

// State is the upstream lifecycle position of one bridged session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateSessionStarting
	StateSessionActive
	StateSessionEnding
	StateClosed
)

var stateNames = map[State]string{
	StateIdle:            "idle",
	StateConnecting:      "connecting",
	StateConnected:       "connected",
	StateSessionStarting: "session_starting",
	StateSessionActive:   "session_active",
	StateSessionEnding:   "session_ending",
	StateClosed:          "closed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// tracker holds the per-session lifecycle state. It is owned by the bridge
// run loop and never shared, so it carries no lock.
//
// The enum alone cannot express "connection established": CONNECTION_STARTED
// arrives while the state stays at connected (or has already moved on to
// session_starting), so the established flag is tracked separately.
type tracker struct {
	state       State
	established bool

	sessionID string
	dialogID  string

	// retained from start_session for logging
	model      string
	systemRole string

	messageCount int
}

// canStartSession reports whether a START_SESSION may go upstream now.
func (t *tracker) canStartSession() bool { return t.established }

// canSendTask reports whether a TASK_REQUEST may go upstream now.
func (t *tracker) canSendTask() bool { return t.state == StateSessionActive }

// canBuffer reports whether client traffic should be parked for a later
// gate instead of dropped.
func (t *tracker) canBuffer() bool {
	switch t.state {
	case StateConnecting, StateConnected, StateSessionStarting:
		return true
	}
	return false
}

// adoptSessionID keeps a server-supplied session ID when the server sends
// one; the client-generated ID stands otherwise.
func (t *tracker) adoptSessionID(id string) {
	if id != "" {
		t.sessionID = id
	}
}

// onSessionFinished handles SESSION_FINISHED: a session we asked to end is
// done; a session the server ended on its own drops back to connected.
func (t *tracker) onSessionFinished() {
	switch t.state {
	case StateSessionEnding:
		t.state = StateClosed
	case StateSessionActive:
		t.state = StateConnected
	}
}

// countMessage bumps the observability counter and returns the new value.
func (t *tracker) countMessage() int {
	t.messageCount++
	return t.messageCount
}
