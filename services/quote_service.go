package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

// QuoteService creates quotes and enforces the one-active-quote invariant.
// Accept/reject transitions go through the workflow engine.
type QuoteService struct {
	db       *gorm.DB
	ttlHours int
}

// NewQuoteService creates a quote service. ttlHours is the default expiry
// window applied when the seller does not set one explicitly.
func NewQuoteService(db *gorm.DB, ttlHours int) *QuoteService {
	return &QuoteService{db: db, ttlHours: ttlHours}
}

// RequestQuote records a buyer's ask for a custom price in a conversation
func (s *QuoteService) RequestQuote(conversationID uint, productID, serviceID, variantID, packageID *uint, quantity int) (*models.Quote, error) {
	if (productID == nil) == (serviceID == nil) {
		return nil, fmt.Errorf("a quote requires exactly one of product or service")
	}
	if quantity < 1 {
		quantity = 1
	}
	quote := models.Quote{
		ConversationID:   conversationID,
		ProductID:        productID,
		ServiceID:        serviceID,
		ProductVariantID: variantID,
		ServicePackageID: packageID,
		Quantity:         quantity,
		Status:           models.QuoteRequested,
	}
	if err := s.db.Create(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

// SendQuote creates a priced quote in sent state. Any prior non-terminal
// quote in the conversation is marked superseded in the same transaction,
// keeping at most one quote active per conversation.
func (s *QuoteService) SendQuote(conversationID uint, productID, serviceID, variantID, packageID *uint, price float64, quantity int, expiresAt *time.Time) (*models.Quote, []uint, error) {
	if (productID == nil) == (serviceID == nil) {
		return nil, nil, fmt.Errorf("a quote requires exactly one of product or service")
	}
	if quantity < 1 {
		quantity = 1
	}
	if expiresAt == nil {
		deadline := time.Now().Add(time.Duration(s.ttlHours) * time.Hour)
		expiresAt = &deadline
	}

	var quote models.Quote
	var superseded []uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var active []models.Quote
		if err := tx.Where("conversation_id = ? AND status IN ?",
			conversationID,
			[]models.QuoteStatus{models.QuoteRequested, models.QuotePending, models.QuoteSent},
		).Find(&active).Error; err != nil {
			return err
		}

		for _, prior := range active {
			res := tx.Model(&models.Quote{}).
				Where("id = ? AND version = ?", prior.ID, prior.Version).
				Updates(map[string]interface{}{
					"status":  models.QuoteSuperseded,
					"version": prior.Version + 1,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &workflow.ConcurrentModificationError{Entity: workflow.EntityQuote, EntityID: prior.ID}
			}
			superseded = append(superseded, prior.ID)
		}

		quote = models.Quote{
			ConversationID:   conversationID,
			ProductID:        productID,
			ServiceID:        serviceID,
			ProductVariantID: variantID,
			ServicePackageID: packageID,
			QuotedPrice:      price,
			Quantity:         quantity,
			ExpiresAt:        expiresAt,
			Status:           models.QuoteSent,
		}
		return tx.Create(&quote).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &quote, superseded, nil
}

// ActiveQuote returns the conversation's current non-terminal quote, lazily
// expiring it first if its deadline has passed.
func (s *QuoteService) ActiveQuote(conversationID uint) (*models.Quote, error) {
	var quote models.Quote
	err := s.db.Where("conversation_id = ? AND status IN ?",
		conversationID,
		[]models.QuoteStatus{models.QuoteRequested, models.QuotePending, models.QuoteSent},
	).Order("created_at DESC").First(&quote).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if quote.IsExpiredAt(time.Now()) {
		res := s.db.Model(&models.Quote{}).
			Where("id = ? AND version = ?", quote.ID, quote.Version).
			Updates(map[string]interface{}{
				"status":  models.QuoteExpired,
				"version": quote.Version + 1,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		quote.Status = models.QuoteExpired
		quote.Version++
	}
	return &quote, nil
}

// Get returns a quote by id, applying lazy expiry on read
func (s *QuoteService) Get(quoteID uint) (*models.Quote, error) {
	var quote models.Quote
	if err := s.db.First(&quote, quoteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &workflow.EntityNotFoundError{Entity: workflow.EntityQuote, EntityID: quoteID}
		}
		return nil, err
	}
	if !quote.Status.IsTerminal() && quote.IsExpiredAt(time.Now()) {
		if err := s.db.Model(&models.Quote{}).
			Where("id = ? AND version = ?", quote.ID, quote.Version).
			Updates(map[string]interface{}{
				"status":  models.QuoteExpired,
				"version": quote.Version + 1,
			}).Error; err != nil {
			return nil, err
		}
		quote.Status = models.QuoteExpired
		quote.Version++
	}
	return &quote, nil
}
