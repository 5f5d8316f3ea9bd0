package services

import (
	"context"

	"messenger-backend/apperror"
	"messenger-backend/models"
	"messenger-backend/repository"
	"messenger-backend/utils"
)

// ConversationService owns conversations, memberships and messages.
//
// HasUser is the authorization primitive behind every mutating socket event.
// It always queries membership fresh instead of caching the member list, so
// a concurrent add or remove is visible on the next check.
type ConversationService struct {
	convos      repository.ConversationRepository
	memberships repository.MembershipRepository
	messages    repository.MessageRepository
	users       repository.UserRepository
	cipher      *utils.Cipher
	maxMsgLen   int
}

// NewConversationService wires the conversation, membership and message
// repositories. maxMsgLen caps message text length in bytes; 0 disables the
// cap.
func NewConversationService(
	cr repository.ConversationRepository,
	mr repository.MembershipRepository,
	msgr repository.MessageRepository,
	ur repository.UserRepository,
	cipher *utils.Cipher,
	maxMsgLen int,
) *ConversationService {
	return &ConversationService{convos: cr, memberships: mr, messages: msgr, users: ur, cipher: cipher, maxMsgLen: maxMsgLen}
}

// Create makes a new conversation and adds the creator as its first member.
func (s *ConversationService) Create(ctx context.Context, name string, creatorID int) (*models.Conversation, error) {
	if name == "" {
		return nil, apperror.New(apperror.Validation, "conversation name is required")
	}

	id, err := s.convos.Insert(ctx, s.cipher.Encrypt(name))
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, "inserting conversation", err)
	}

	if err := s.memberships.Insert(ctx, id, creatorID); err != nil {
		return nil, apperror.Wrap(apperror.Persistence, "adding creator to conversation", err)
	}

	return &models.Conversation{ID: id, Name: name}, nil
}

// FindByID returns the conversation, or (nil, nil) when no row matches.
func (s *ConversationService) FindByID(ctx context.Context, id int) (*models.Conversation, error) {
	rec, err := s.convos.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, "loading conversation", err)
	}
	if rec == nil {
		return nil, nil
	}
	return s.decrypt(rec)
}

// FindByUserID returns every conversation the user is a member of.
func (s *ConversationService) FindByUserID(ctx context.Context, userID int) ([]models.Conversation, error) {
	recs, err := s.convos.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, "loading conversations", err)
	}

	convos := make([]models.Conversation, 0, len(recs))
	for i := range recs {
		c, err := s.decrypt(&recs[i])
		if err != nil {
			return nil, err
		}
		convos = append(convos, *c)
	}
	return convos, nil
}

func (s *ConversationService) Update(ctx context.Context, id int, name string) (*models.Conversation, error) {
	if name == "" {
		return nil, apperror.New(apperror.Validation, "conversation name is required")
	}

	rec, err := s.convos.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, "loading conversation", err)
	}
	if rec == nil {
		return nil, apperror.New(apperror.NotFound, "conversation does not exist")
	}

	if err := s.convos.Update(ctx, id, s.cipher.Encrypt(name)); err != nil {
		return nil, apperror.Wrap(apperror.Persistence, "updating conversation", err)
	}
	return &models.Conversation{ID: id, Name: name}, nil
}

// AddUser adds a member. Adding a user who is already a member is rejected.
func (s *ConversationService) AddUser(ctx context.Context, conversationID, userID int) error {
	present, err := s.HasUser(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if present {
		return apperror.New(apperror.Conflict, "user is already in conversation")
	}

	if err := s.memberships.Insert(ctx, conversationID, userID); err != nil {
		return apperror.Wrap(apperror.Persistence, "adding user to conversation", err)
	}
	return nil
}

// RemoveUser removes a member. Removing a non-member is a no-op.
func (s *ConversationService) RemoveUser(ctx context.Context, conversationID, userID int) error {
	if err := s.memberships.Remove(ctx, conversationID, userID); err != nil {
		return apperror.Wrap(apperror.Persistence, "removing user from conversation", err)
	}
	return nil
}

// HasUser reports whether userID is a member of the conversation.
func (s *ConversationService) HasUser(ctx context.Context, conversationID, userID int) (bool, error) {
	ok, err := s.memberships.Exists(ctx, conversationID, userID)
	if err != nil {
		return false, apperror.Wrap(apperror.Persistence, "checking membership", err)
	}
	return ok, nil
}

// GetUsers returns the decrypted members of the conversation.
func (s *ConversationService) GetUsers(ctx context.Context, conversationID int) ([]models.User, error) {
	recs, err := s.users.FindByConversationID(ctx, conversationID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, "loading conversation members", err)
	}

	users := make([]models.User, 0, len(recs))
	for i := range recs {
		userName, err := s.cipher.Decrypt(recs[i].UserName)
		if err != nil {
			return nil, err
		}
		firstName, err := s.cipher.Decrypt(recs[i].FirstName)
		if err != nil {
			return nil, err
		}
		lastName, err := s.cipher.Decrypt(recs[i].LastName)
		if err != nil {
			return nil, err
		}
		email, err := s.cipher.Decrypt(recs[i].Email)
		if err != nil {
			return nil, err
		}
		users = append(users, models.User{
			ID:        recs[i].ID,
			UserName:  userName,
			FirstName: firstName,
			LastName:  lastName,
			Email:     email,
		})
	}
	return users, nil
}

// GetMessages returns the conversation's messages in insertion order.
func (s *ConversationService) GetMessages(ctx context.Context, conversationID int) ([]models.Message, error) {
	recs, err := s.messages.ListByConversationID(ctx, conversationID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, "loading messages", err)
	}

	msgs := make([]models.Message, 0, len(recs))
	for i := range recs {
		text, err := s.cipher.Decrypt(recs[i].Text)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, models.Message{
			ID:             recs[i].ID,
			ConversationID: recs[i].ConversationID,
			UserID:         recs[i].UserID,
			Text:           text,
		})
	}
	return msgs, nil
}

// CreateMessage persists a message. The caller is responsible for the
// membership check; this only validates the payload and the conversation.
func (s *ConversationService) CreateMessage(ctx context.Context, conversationID, userID int, text string) (*models.Message, error) {
	if text == "" {
		return nil, apperror.New(apperror.Validation, "message text is required")
	}
	if s.maxMsgLen > 0 && len(text) > s.maxMsgLen {
		return nil, apperror.New(apperror.Validation, "message text is too long")
	}

	id, err := s.messages.Insert(ctx, conversationID, userID, s.cipher.Encrypt(text))
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, "inserting message", err)
	}

	return &models.Message{
		ID:             id,
		ConversationID: conversationID,
		UserID:         userID,
		Text:           text,
	}, nil
}

func (s *ConversationService) decrypt(rec *repository.ConversationRecord) (*models.Conversation, error) {
	name, err := s.cipher.Decrypt(rec.Name)
	if err != nil {
		return nil, err
	}
	return &models.Conversation{ID: rec.ID, Name: name}, nil
}
