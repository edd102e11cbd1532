package orchestrator

// State is one node of the execution state machine. The state set is small
// and fixed, so transitions are an exhaustively-matched switch rather than
// a dispatch table.
type State int

const (
	StateInit State = iota
	StateConfigLookup
	StatePoll
	StateDecision
	StatePreprocess
	StateReportFailure
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateConfigLookup:
		return "ConfigLookup"
	case StatePoll:
		return "Poll"
	case StateDecision:
		return "Decision"
	case StatePreprocess:
		return "Preprocess"
	case StateReportFailure:
		return "ReportFailure"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Outcome is the terminal result of one execution. Exactly one of Success
// or Failure is reached per execution; Cancelled and Fault are the two
// non-branch terminals (no business metric is emitted for either).
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFault     Outcome = "fault"
)
