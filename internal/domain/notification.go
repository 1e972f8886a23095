package domain

// HasUnseenVisitorActivity reports whether any visitor message is newer than
// the latest admin message. Derived on read, never stored.
func HasUnseenVisitorActivity(t *Ticket) bool {
	lastAdmin, hasAdmin := latestSentAt(t.AdminMessages())
	for _, msg := range t.VisitorMessages() {
		if !hasAdmin || msg.SentAt.After(lastAdmin) {
			return true
		}
	}
	return false
}
