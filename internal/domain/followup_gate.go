package domain

// FollowUpDecision tells the visitor view whether a message, and an
// attachment with it, may be submitted right now.
type FollowUpDecision struct {
	Allowed         bool
	AllowAttachment bool
}

// EvaluateFollowUp applies turn-taking while the ticket is opened and the
// appeal rule while it is declined or closed. Accepted tickets take no
// visitor messages.
func EvaluateFollowUp(t *Ticket) FollowUpDecision {
	switch {
	case t.Status.Locked():
		return FollowUpDecision{Allowed: true}
	case t.Status == TicketStatusOpened:
		lastAdmin, ok := latestSentAt(t.AdminMessages())
		if !ok {
			return FollowUpDecision{}
		}
		lastVisitor, seen := latestSentAt(t.VisitorMessages())
		if seen && !lastAdmin.After(lastVisitor) {
			return FollowUpDecision{}
		}
		return FollowUpDecision{Allowed: true, AllowAttachment: true}
	default:
		return FollowUpDecision{}
	}
}
