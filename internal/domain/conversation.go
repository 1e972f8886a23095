package domain

import (
	"slices"
	"time"
)

// ConversationEntry is one line of the merged admin/visitor thread.
type ConversationEntry struct {
	ID         string
	Origin     MessageOrigin
	Text       string
	CitedURL   string
	Attachment string
	SentAt     time.Time
}

// MergeConversation sorts both streams ascending by SentAt. Entries with
// equal timestamps list admin messages before visitor messages, and keep
// append order within one origin.
func MergeConversation(admin, visitor []Message) []ConversationEntry {
	entries := make([]ConversationEntry, 0, len(admin)+len(visitor))
	for _, msg := range admin {
		entries = append(entries, entryFrom(OriginAdmin, msg))
	}
	for _, msg := range visitor {
		entries = append(entries, entryFrom(OriginVisitor, msg))
	}
	slices.SortStableFunc(entries, func(a, b ConversationEntry) int {
		return a.SentAt.Compare(b.SentAt)
	})
	return entries
}

// Conversation is the merged view of the ticket's thread.
func (t *Ticket) Conversation() []ConversationEntry {
	return MergeConversation(t.AdminMessages(), t.VisitorMessages())
}

func entryFrom(origin MessageOrigin, msg Message) ConversationEntry {
	return ConversationEntry{
		ID:         msg.ID,
		Origin:     origin,
		Text:       msg.Text,
		CitedURL:   msg.CitedURL,
		Attachment: msg.Attachment,
		SentAt:     msg.SentAt,
	}
}
