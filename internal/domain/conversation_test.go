package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeConversationOrdersBySentAt(t *testing.T) {
	admin := []Message{{ID: "m-admin", Origin: OriginAdmin, Text: "admin 10:00", CitedURL: "https://example.com", SentAt: at(60)}}
	visitor := []Message{{ID: "m-visitor", Origin: OriginVisitor, Text: "visitor 09:59", Attachment: "/uploads/a.png", SentAt: at(59)}}

	merged := MergeConversation(admin, visitor)

	require.Len(t, merged, 2)
	assert.Equal(t, OriginVisitor, merged[0].Origin)
	assert.Equal(t, "m-visitor", merged[0].ID)
	assert.Equal(t, "m-admin", merged[1].ID)
	assert.Equal(t, "/uploads/a.png", merged[0].Attachment)
	assert.Equal(t, OriginAdmin, merged[1].Origin)
	assert.Equal(t, "https://example.com", merged[1].CitedURL)
}

func TestMergeConversationTieBreaksAdminFirst(t *testing.T) {
	admin := []Message{{Text: "a1", SentAt: at(5)}, {Text: "a2", SentAt: at(5)}}
	visitor := []Message{{Text: "v1", SentAt: at(5)}, {Text: "v0", SentAt: at(1)}}

	merged := MergeConversation(admin, visitor)

	texts := make([]string, 0, len(merged))
	for _, entry := range merged {
		texts = append(texts, entry.Text)
	}
	assert.Equal(t, []string{"v0", "a1", "a2", "v1"}, texts)
}

func TestConversationDoesNotMutateTicket(t *testing.T) {
	ticket := newTestTicket()
	ticket.Messages = []Message{
		{Origin: OriginVisitor, Text: "late", SentAt: at(9)},
		{Origin: OriginAdmin, Text: "early", SentAt: at(1)},
	}
	snapshot := ticket.Clone()

	merged := ticket.Conversation()

	assert.Equal(t, "early", merged[0].Text)
	assert.Equal(t, snapshot, ticket)
}

func TestMergeConversationEmpty(t *testing.T) {
	assert.Empty(t, MergeConversation(nil, nil))
}
