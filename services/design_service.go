package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

// DesignService handles buyer design submissions. Seller decisions on a
// submission go through the workflow engine.
type DesignService struct {
	db *gorm.DB
}

func NewDesignService(db *gorm.DB) *DesignService {
	return &DesignService{db: db}
}

// DesignFileInput references an already-uploaded design artifact
type DesignFileInput struct {
	URL      string `json:"url" binding:"required"`
	Filename string `json:"filename" binding:"required"`
}

// SubmitInput carries a design submission tied to a conversation and item
type SubmitInput struct {
	ConversationID   uint
	BuyerID          uint
	ProductID        *uint
	ServiceID        *uint
	ProductVariantID *uint
	ServicePackageID *uint
	Files            []DesignFileInput
}

// Submit creates a pending design approval. A buyer may only resubmit for
// the same conversation after the previous submission ended in
// changes_requested or rejected; a pending or approved one blocks new ones.
func (s *DesignService) Submit(in SubmitInput) (*models.DesignApproval, error) {
	if len(in.Files) == 0 {
		return nil, fmt.Errorf("at least one design file is required")
	}
	if (in.ProductID == nil) == (in.ServiceID == nil) {
		return nil, fmt.Errorf("exactly one of product or service must be set")
	}

	approval := models.DesignApproval{
		ConversationID:   in.ConversationID,
		BuyerID:          in.BuyerID,
		ProductID:        in.ProductID,
		ServiceID:        in.ServiceID,
		ProductVariantID: in.ProductVariantID,
		ServicePackageID: in.ServicePackageID,
		Status:           models.DesignPending,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var latest models.DesignApproval
		err := tx.Where("conversation_id = ? AND buyer_id = ?", in.ConversationID, in.BuyerID).
			Order("created_at DESC").
			First(&latest).Error
		switch {
		case err == nil:
			if latest.Status != models.DesignChangesRequested && latest.Status != models.DesignRejected {
				return &workflow.InvalidTransitionError{
					Entity:       workflow.EntityDesignApproval,
					EntityID:     latest.ID,
					CurrentState: string(latest.Status),
					Action:       "resubmit",
				}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// first submission
		default:
			return err
		}

		if err := tx.Create(&approval).Error; err != nil {
			return err
		}
		for _, f := range in.Files {
			file := models.DesignFile{
				DesignApprovalID: approval.ID,
				URL:              f.URL,
				Filename:         f.Filename,
			}
			if err := tx.Create(&file).Error; err != nil {
				return err
			}
			approval.Files = append(approval.Files, file)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

// Get loads a design approval with its files
func (s *DesignService) Get(approvalID uint) (*models.DesignApproval, error) {
	var approval models.DesignApproval
	err := s.db.Preload("Files").First(&approval, approvalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &workflow.EntityNotFoundError{Entity: workflow.EntityDesignApproval, EntityID: approvalID}
		}
		return nil, err
	}
	return &approval, nil
}

// ListForConversation returns submissions in a conversation, newest first
func (s *DesignService) ListForConversation(conversationID uint) ([]models.DesignApproval, error) {
	var approvals []models.DesignApproval
	err := s.db.Preload("Files").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Find(&approvals).Error
	if err != nil {
		return nil, err
	}
	return approvals, nil
}
