package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

// AttachmentInput is a URL reference supplied with a new message
type AttachmentInput struct {
	URL       string `json:"url" binding:"required"`
	Filename  string `json:"filename" binding:"required"`
	MimeType  string `json:"mime_type" binding:"required"`
	SizeBytes int64  `json:"size_bytes" binding:"required,gt=0"`
}

// ConversationService manages threads, membership, messages, and read state
type ConversationService struct {
	db *gorm.DB
}

// NewConversationService creates a conversation service bound to a database handle
func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{db: db}
}

// CreateConversationInput carries everything needed to open a thread
type CreateConversationInput struct {
	Type      models.ConversationType
	Subject   string
	BuyerID   uint
	SellerID  uint
	ProductID *uint
	ServiceID *uint
	OrderID   *uint
	BookingID *uint
}

// CreateConversation opens a thread scoped to a commerce context. For
// pre-purchase types an existing active conversation for the same
// (buyer, item) pair is reused instead of duplicated.
func (s *ConversationService) CreateConversation(in CreateConversationInput) (*models.Conversation, error) {
	if err := validateConversationLinks(in); err != nil {
		return nil, err
	}

	// Reuse an existing active pre-purchase thread for the same buyer+item
	if in.Type == models.ConversationPrePurchaseProduct || in.Type == models.ConversationPrePurchaseService {
		existing, err := s.findActivePrePurchase(in)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	conv := models.Conversation{
		Type:      in.Type,
		Subject:   in.Subject,
		Status:    models.ConversationActive,
		ProductID: in.ProductID,
		ServiceID: in.ServiceID,
		OrderID:   in.OrderID,
		BookingID: in.BookingID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		participants := []models.ConversationParticipant{
			{ConversationID: conv.ID, UserID: in.BuyerID, Role: models.RoleBuyer},
			{ConversationID: conv.ID, UserID: in.SellerID, Role: models.RoleSeller},
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// validateConversationLinks enforces the type/link pairing rules
func validateConversationLinks(in CreateConversationInput) error {
	switch in.Type {
	case models.ConversationPrePurchaseProduct:
		if in.ProductID == nil || in.ServiceID != nil {
			return fmt.Errorf("pre_purchase_product conversations require exactly a product link")
		}
	case models.ConversationPrePurchaseService:
		if in.ServiceID == nil || in.ProductID != nil {
			return fmt.Errorf("pre_purchase_service conversations require exactly a service link")
		}
	case models.ConversationOrder:
		if in.OrderID == nil {
			return fmt.Errorf("order conversations require an order link")
		}
	case models.ConversationBooking:
		if in.BookingID == nil {
			return fmt.Errorf("booking conversations require a booking link")
		}
	case models.ConversationGeneralInquiry, models.ConversationComplaint:
		// no linked context required
	default:
		return fmt.Errorf("unknown conversation type %q", in.Type)
	}
	return nil
}

func (s *ConversationService) findActivePrePurchase(in CreateConversationInput) (*models.Conversation, error) {
	query := s.db.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("conversations.type = ? AND conversations.status = ?", in.Type, models.ConversationActive).
		Where("cp.user_id = ? AND cp.role = ?", in.BuyerID, models.RoleBuyer)
	if in.ProductID != nil {
		query = query.Where("conversations.product_id = ?", *in.ProductID)
	}
	if in.ServiceID != nil {
		query = query.Where("conversations.service_id = ?", *in.ServiceID)
	}

	var conv models.Conversation
	err := query.First(&conv).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// AddAdmin joins an admin to the thread on demand. Idempotent.
func (s *ConversationService) AddAdmin(conversationID, adminID uint) error {
	var existing models.ConversationParticipant
	err := s.db.Where("conversation_id = ? AND user_id = ?", conversationID, adminID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return s.db.Create(&models.ConversationParticipant{
		ConversationID: conversationID,
		UserID:         adminID,
		Role:           models.RoleAdmin,
	}).Error
}

// IsParticipant reports whether the user belongs to the conversation
func (s *ConversationService) IsParticipant(conversationID, userID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

// AppendMessage persists a user message with the next sequence number for
// the conversation. Closed conversations reject non-admin senders.
func (s *ConversationService) AppendMessage(conversationID, senderID uint, senderRole models.Role, content string, attachments []AttachmentInput) (*models.Message, error) {
	var m models.Message
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.First(&conv, conversationID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &workflow.EntityNotFoundError{Entity: "conversation", EntityID: conversationID}
			}
			return err
		}

		if conv.IsClosed() && senderRole != models.RoleAdmin {
			return &workflow.ConversationClosedError{ConversationID: conversationID, Status: conv.Status}
		}

		// Allocate the next sequence number under the conversation row;
		// the update acts as the ordering point for concurrent appends.
		res := tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Update("last_seq", gorm.Expr("last_seq + 1"))
		if res.Error != nil {
			return res.Error
		}
		if err := tx.First(&conv, conversationID).Error; err != nil {
			return err
		}

		m = models.Message{
			ConversationID: conversationID,
			SenderID:       &senderID,
			Content:        content,
			Seq:            conv.LastSeq,
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}

		for _, a := range attachments {
			att := models.Attachment{
				MessageID: m.ID,
				URL:       a.URL,
				Filename:  a.Filename,
				MimeType:  a.MimeType,
				SizeBytes: a.SizeBytes,
			}
			if err := tx.Create(&att).Error; err != nil {
				return err
			}
		}

		// Sender has read their own message
		if err := tx.Model(&models.ConversationParticipant{}).
			Where("conversation_id = ? AND user_id = ? AND last_read_seq < ?", conversationID, senderID, m.Seq).
			Update("last_read_seq", m.Seq).Error; err != nil {
			return err
		}

		return tx.Preload("Sender").Preload("Attachments").First(&m, m.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// History returns messages in sequence order, optionally only those after
// a known sequence number (reconnect backfill).
func (s *ConversationService) History(conversationID uint, afterSeq uint64) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.Where("conversation_id = ? AND seq > ?", conversationID, afterSeq).
		Preload("Sender").
		Preload("Attachments").
		Order("seq ASC").
		Find(&messages).Error
	return messages, err
}

// MarkRead advances the participant's last-read watermark to the latest
// message. O(1) per call and idempotent: repeated calls are no-ops.
func (s *ConversationService) MarkRead(conversationID, userID uint) error {
	var conv models.Conversation
	if err := s.db.First(&conv, conversationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &workflow.EntityNotFoundError{Entity: "conversation", EntityID: conversationID}
		}
		return err
	}
	return s.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ? AND last_read_seq < ?", conversationID, userID, conv.LastSeq).
		Update("last_read_seq", conv.LastSeq).Error
}

// UnreadCount returns how many messages the participant has not read
func (s *ConversationService) UnreadCount(conversationID, userID uint) (int64, error) {
	var p models.ConversationParticipant
	if err := s.db.Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&p).Error; err != nil {
		return 0, err
	}
	var count int64
	err := s.db.Model(&models.Message{}).
		Where("conversation_id = ? AND seq > ?", conversationID, p.LastReadSeq).
		Count(&count).Error
	return count, err
}

// UpdateStatus moves the conversation forward. Admin may set resolved or
// archived at any time; buyer and seller may only request resolution, which
// routes through admin.
func (s *ConversationService) UpdateStatus(conversationID uint, newStatus models.ConversationStatus, actorRole models.Role) (*models.Conversation, error) {
	if actorRole != models.RoleAdmin {
		return nil, &workflow.ActorNotAuthorizedError{
			Entity: "conversation", EntityID: conversationID,
			Role: actorRole, Action: "update_status",
		}
	}

	var conv models.Conversation
	if err := s.db.First(&conv, conversationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &workflow.EntityNotFoundError{Entity: "conversation", EntityID: conversationID}
		}
		return nil, err
	}

	if !conversationStatusForward(conv.Status, newStatus) {
		return nil, &workflow.InvalidTransitionError{
			Entity: "conversation", EntityID: conversationID,
			CurrentState: string(conv.Status),
			Action:       workflow.Action(newStatus), Role: actorRole,
		}
	}

	if err := s.db.Model(&conv).Update("status", newStatus).Error; err != nil {
		return nil, err
	}
	conv.Status = newStatus
	return &conv, nil
}

// conversationStatusForward encodes the forward-only status graph:
// active -> resolved -> archived, or active -> archived directly.
func conversationStatusForward(from, to models.ConversationStatus) bool {
	switch from {
	case models.ConversationActive:
		return to == models.ConversationResolved || to == models.ConversationArchived
	case models.ConversationResolved:
		return to == models.ConversationArchived
	}
	return false
}

// ListForUser returns the user's conversations, most recently updated first
func (s *ConversationService) ListForUser(userID uint) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := s.db.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Preload("Participants").
		Preload("Participants.User").
		Order("conversations.updated_at DESC").
		Find(&conversations).Error
	return conversations, err
}
