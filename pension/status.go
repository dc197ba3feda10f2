package pension

import "time"

// =============================================================================
// STATUS MACHINE
// =============================================================================
//
//   DRAFT ──► IN_PROGRESS ──► VALIDATED
//                     └─────► REJECTED
//
// VALIDATED and REJECTED are terminal. Re-applying the current status is a
// no-op. The calculation engine never drives transitions; it reads segment
// data whatever the status.

var transitions = map[Status][]Status{
	StatusDraft:      {StatusInProgress},
	StatusInProgress: {StatusValidated, StatusRejected},
}

// CanTransitionTo reports whether a case file may move from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Transition moves the case file to next. ValidatedAt is stamped when the
// case file becomes VALIDATED.
func Transition(cf *CaseFile, next Status, at time.Time) error {
	if !next.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown status " + string(next)}
	}
	if !cf.Status.CanTransitionTo(next) {
		return &TransitionError{From: cf.Status, To: next}
	}
	if cf.Status == next {
		return nil
	}
	cf.Status = next
	if next == StatusValidated {
		t := at
		cf.ValidatedAt = &t
	}
	return nil
}

// InitialStatus is the status a new case file of kind k starts in. Career
// case files are entered by staff and start IN_PROGRESS; cotisation case
// files are filed by their owner and start as DRAFT.
func InitialStatus(k Kind) Status {
	if k == KindCotisation {
		return StatusDraft
	}
	return StatusInProgress
}
