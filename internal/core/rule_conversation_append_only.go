package core

import (
	"context"
	"fmt"
	"strings"

	"guardianpaws/pkg/domain"
)

const conversationAppendOnlyRuleName = "conversation_append_only"

// ConversationAppendOnlyRule rejects edits, deletions and reordering of
// existing messages, and blank new messages.
func ConversationAppendOnlyRule() domain.Rule {
	return conversationAppendOnlyRule{}
}

type conversationAppendOnlyRule struct{}

func (conversationAppendOnlyRule) Name() string { return conversationAppendOnlyRuleName }

func (conversationAppendOnlyRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		before, _, after, ok := reportChange(change)
		if !ok {
			continue
		}
		if len(after.Conversation) < len(before.Conversation) {
			res.Violations = append(res.Violations, blockReport(conversationAppendOnlyRuleName, after.ID,
				fmt.Sprintf("report %s conversation lost %d message(s)", after.ID, len(before.Conversation)-len(after.Conversation))))
			continue
		}
		for i, msg := range before.Conversation {
			if !sameMessage(after.Conversation[i], msg) {
				res.Violations = append(res.Violations, blockReport(conversationAppendOnlyRuleName, after.ID,
					fmt.Sprintf("report %s message %s was modified", after.ID, msg.ID)))
				break
			}
		}
		for _, msg := range after.Conversation[len(before.Conversation):] {
			if strings.TrimSpace(msg.Text) == "" || msg.SenderID == "" {
				res.Violations = append(res.Violations, blockReport(conversationAppendOnlyRuleName, after.ID,
					fmt.Sprintf("report %s message %s is missing sender or text", after.ID, msg.ID)))
			}
		}
	}
	return res, nil
}

func sameMessage(a, b domain.ChatMessage) bool {
	return a.ID == b.ID && a.SenderID == b.SenderID && a.Text == b.Text && a.Timestamp.Equal(b.Timestamp)
}
