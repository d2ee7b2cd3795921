package services

import (
	"context"

	"github.com/medscan/apiserver/internal/store"
	"github.com/medscan/apiserver/types"
)

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, message types.Message) (types.Message, error)
	ListByRecipient(ctx context.Context, toID int) ([]types.MessageListing, error)
}

// MessageService lets a patient send one of their diagnoses to a doctor.
type MessageService struct {
	messages  MessageRepository
	diagnoses DiagnosisRepository
	accounts  AccountRepository
}

func NewMessageService(messages MessageRepository, diagnoses DiagnosisRepository, accounts AccountRepository) *MessageService {
	return &MessageService{
		messages:  messages,
		diagnoses: diagnoses,
		accounts:  accounts,
	}
}

// Send attaches a note to one of the sender's own diagnoses and addresses
// it to a doctor account.
func (s *MessageService) Send(ctx context.Context, from types.Account, toID, diagnosisID int, text string) (types.Message, error) {
	diagnosis, err := s.diagnoses.GetByID(ctx, diagnosisID)
	if err != nil {
		return types.Message{}, err
	}
	if diagnosis.AccountID != from.ID {
		return types.Message{}, store.ErrNotFound
	}

	recipient, err := s.accounts.GetByID(ctx, toID)
	if err != nil {
		return types.Message{}, err
	}
	if recipient.Role != types.RoleDoctor {
		return types.Message{}, store.ErrNotFound
	}

	return s.messages.Create(ctx, types.Message{
		FromID:      from.ID,
		ToID:        toID,
		DiagnosisID: diagnosisID,
		Text:        text,
	})
}

// Inbox returns messages addressed to the doctor.
func (s *MessageService) Inbox(ctx context.Context, doctorID int) ([]types.MessageListing, error) {
	return s.messages.ListByRecipient(ctx, doctorID)
}
