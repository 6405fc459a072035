package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

// ReturnService files return attempts and enforces the attempt ceiling.
// Responses and arbitration go through the workflow engine.
type ReturnService struct {
	db          *gorm.DB
	maxAttempts int
}

// NewReturnService creates a return service bound to a database handle
func NewReturnService(db *gorm.DB, maxAttempts int) *ReturnService {
	return &ReturnService{db: db, maxAttempts: maxAttempts}
}

// EvidenceInput is a URL reference to an uploaded evidence file
type EvidenceInput struct {
	URL      string `json:"url" binding:"required"`
	Filename string `json:"filename" binding:"required"`
}

// FileReturnInput carries one new return attempt
type FileReturnInput struct {
	OrderID               *uint
	BookingID             *uint
	BuyerID               uint
	Reason                models.ReturnReason
	Description           string
	RequestedRefundAmount float64
	Evidence              []EvidenceInput
}

// FileReturn creates the next return attempt for an order or booking.
// Attempt numbers strictly increase; a new attempt is only allowed once the
// previous one reached a terminal state, and never beyond the configured
// maximum. History of prior attempts is retained untouched.
func (s *ReturnService) FileReturn(in FileReturnInput) (*models.ReturnRequest, error) {
	if (in.OrderID == nil) == (in.BookingID == nil) {
		return nil, fmt.Errorf("a return request requires exactly one of order or booking")
	}

	sellerID, buyerOK, err := s.resolveParties(in)
	if err != nil {
		return nil, err
	}
	if !buyerOK {
		return nil, &workflow.ActorNotAuthorizedError{
			Entity: workflow.EntityReturnRequest, ActorID: in.BuyerID,
			Role: models.RoleBuyer, Action: "file",
		}
	}

	var req models.ReturnRequest
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var prior []models.ReturnRequest
		query := tx.Order("attempt_number DESC")
		if in.OrderID != nil {
			query = query.Where("order_id = ?", *in.OrderID)
		} else {
			query = query.Where("booking_id = ?", *in.BookingID)
		}
		if err := query.Find(&prior).Error; err != nil {
			return err
		}

		attempt := 1
		if len(prior) > 0 {
			latest := prior[0]
			if !latest.Status.IsTerminal() {
				return &workflow.InvalidTransitionError{
					Entity: workflow.EntityReturnRequest, EntityID: latest.ID,
					CurrentState: string(latest.Status), Action: "file", Role: models.RoleBuyer,
				}
			}
			attempt = latest.AttemptNumber + 1
		}
		if attempt > s.maxAttempts {
			return &workflow.AttemptLimitExceededError{
				OrderID: in.OrderID, BookingID: in.BookingID, MaxAttempts: s.maxAttempts,
			}
		}

		req = models.ReturnRequest{
			OrderID:               in.OrderID,
			BookingID:             in.BookingID,
			BuyerID:               in.BuyerID,
			SellerID:              sellerID,
			Reason:                in.Reason,
			Description:           in.Description,
			RequestedRefundAmount: in.RequestedRefundAmount,
			AttemptNumber:         attempt,
			Status:                models.ReturnRequested,
		}
		if err := tx.Create(&req).Error; err != nil {
			return err
		}
		for _, ev := range in.Evidence {
			e := models.ReturnEvidence{
				ReturnRequestID: req.ID,
				URL:             ev.URL,
				Filename:        ev.Filename,
			}
			if err := tx.Create(&e).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// resolveParties derives the seller from the disputed order/booking and
// verifies the filer is its buyer.
func (s *ReturnService) resolveParties(in FileReturnInput) (sellerID uint, buyerOK bool, err error) {
	if in.OrderID != nil {
		var order models.Order
		if err := s.db.First(&order, *in.OrderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return 0, false, &workflow.EntityNotFoundError{Entity: workflow.EntityOrder, EntityID: *in.OrderID}
			}
			return 0, false, err
		}
		return order.SellerID, order.BuyerID == in.BuyerID, nil
	}
	var booking models.Booking
	if err := s.db.First(&booking, *in.BookingID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, false, &workflow.EntityNotFoundError{Entity: workflow.EntityBooking, EntityID: *in.BookingID}
		}
		return 0, false, err
	}
	return booking.SellerID, booking.BuyerID == in.BuyerID, nil
}

// History returns every attempt for the order/booking, oldest first
func (s *ReturnService) History(orderID, bookingID *uint) ([]models.ReturnRequest, error) {
	query := s.db.Preload("Evidence").Order("attempt_number ASC")
	if orderID != nil {
		query = query.Where("order_id = ?", *orderID)
	}
	if bookingID != nil {
		query = query.Where("booking_id = ?", *bookingID)
	}
	var attempts []models.ReturnRequest
	err := query.Find(&attempts).Error
	return attempts, err
}
