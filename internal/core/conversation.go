package core

import (
	"context"
	"fmt"
	"strings"

	"guardianpaws/pkg/domain"

	"github.com/google/uuid"
)

// AppendMessage adds a chat message to the report's conversation. Only the
// reporter and the assigned NGO may post.
func (s *Service) AppendMessage(ctx context.Context, reportID, senderID, text string) (domain.ChatMessage, error) {
	var msg domain.ChatMessage
	err := s.run(ctx, opAppendMessage, func(ctx context.Context) (string, error) {
		_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			report, ok := tx.FindReport(reportID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityReport, ID: reportID}
			}
			body := strings.TrimSpace(text)
			if body == "" {
				return domain.ErrEmptyMessage
			}
			if senderID == "" || (senderID != report.ReporterID && !report.AssignedTo(senderID)) {
				return fmt.Errorf("%w: %q is not a participant of report %s", domain.ErrForbidden, senderID, reportID)
			}
			msg = domain.ChatMessage{
				ID:        uuid.NewString(),
				SenderID:  senderID,
				Text:      body,
				Timestamp: tx.Now(),
			}
			_, err := tx.UpdateReport(reportID, func(r *domain.RescueReport) error {
				r.Conversation = append(r.Conversation, msg)
				return nil
			})
			return err
		})
		return reportID, err
	})
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return msg, nil
}

// Conversation returns the report's messages in posting order.
func (s *Service) Conversation(ctx context.Context, reportID string) ([]domain.ChatMessage, error) {
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return report.Conversation, nil
}
