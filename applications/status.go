package applications

import "errors"

var ErrInvalidTransition = errors.New("transição de status inválida")

// allowedTransitions is the whole machine. approved and rejected are terminal
// for admin actions; rejected→pending exists only through the appeal path,
// which re-queues the application for an explicit re-review.
var allowedTransitions = map[string][]string{
	StatusDraft:              {StatusPending},
	StatusPending:            {StatusApproved, StatusRejected, StatusDocumentsRequested},
	StatusDocumentsRequested: {StatusPending},
	StatusRejected:           {StatusPending},
}

// CanTransition reports whether from→to is a legal move.
func CanTransition(from, to string) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
