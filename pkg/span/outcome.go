package span

// Outcome describes what applying an event did to the index.
type Outcome int

const (
	// OutcomeIgnored is returned for events that carry no span information.
	OutcomeIgnored Outcome = iota

	// OutcomeCreated means a new span (or placeholder) was inserted.
	OutcomeCreated

	// OutcomeBackfilled means a Started event filled an existing in-progress span.
	OutcomeBackfilled

	// OutcomeUpdated means a state delta was merged into an existing span.
	OutcomeUpdated

	// OutcomeFinished means an in-progress span became terminal.
	OutcomeFinished

	// OutcomeDuplicate means the event targeted a terminal span and was dropped.
	OutcomeDuplicate

	// OutcomeDropped means a Finished event arrived for an unknown span.
	OutcomeDropped

	// OutcomeMalformed means the event lacked a required identifier.
	OutcomeMalformed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeCreated:
		return "created"
	case OutcomeBackfilled:
		return "backfilled"
	case OutcomeUpdated:
		return "updated"
	case OutcomeFinished:
		return "finished"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeDropped:
		return "dropped"
	case OutcomeMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Changed reports whether the outcome mutated the index.
func (o Outcome) Changed() bool {
	switch o {
	case OutcomeCreated, OutcomeBackfilled, OutcomeUpdated, OutcomeFinished:
		return true
	default:
		return false
	}
}
