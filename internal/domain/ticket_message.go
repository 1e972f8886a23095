package domain

import "time"

// MessageOrigin indicates which party authored a message.
type MessageOrigin string

const (
	OriginAdmin   MessageOrigin = "admin"
	OriginVisitor MessageOrigin = "visitor"
)

// Message is one append-only entry of the ticket log. CitedURL is only ever
// set on admin messages.
type Message struct {
	ID         string
	Origin     MessageOrigin
	Text       string
	CitedURL   string
	Attachment string
	SentAt     time.Time
}

// AdminMessages returns the admin projection of the log in append order.
func (t *Ticket) AdminMessages() []Message {
	return t.messagesFrom(OriginAdmin)
}

// VisitorMessages returns the visitor projection of the log in append order.
func (t *Ticket) VisitorMessages() []Message {
	return t.messagesFrom(OriginVisitor)
}

func (t *Ticket) messagesFrom(origin MessageOrigin) []Message {
	out := make([]Message, 0, len(t.Messages))
	for _, msg := range t.Messages {
		if msg.Origin == origin {
			out = append(out, msg)
		}
	}
	return out
}

func latestSentAt(msgs []Message) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, msg := range msgs {
		if !found || msg.SentAt.After(latest) {
			latest = msg.SentAt
			found = true
		}
	}
	return latest, found
}
