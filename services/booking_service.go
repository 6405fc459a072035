package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

// BookingService creates and lists service bookings. Lifecycle changes go
// through the workflow engine.
type BookingService struct {
	db *gorm.DB
}

func NewBookingService(db *gorm.DB) *BookingService {
	return &BookingService{db: db}
}

// CreateBookingInput carries a booking request. With QuoteID set the service
// and amount come from the accepted quote; otherwise PackageID prices the
// booking.
type CreateBookingInput struct {
	BuyerID     uint
	ServiceID   uint
	PackageID   *uint
	ScheduledAt time.Time
	QuoteID     *uint
}

// CreateBooking opens a booking in pending_confirmation
func (s *BookingService) CreateBooking(in CreateBookingInput) (*models.Booking, error) {
	if in.ScheduledAt.Before(time.Now()) {
		return nil, fmt.Errorf("scheduled time must be in the future")
	}

	booking := models.Booking{
		BuyerID:     in.BuyerID,
		ScheduledAt: in.ScheduledAt,
		Status:      models.BookingPendingConfirmation,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if in.QuoteID != nil {
			if err := s.priceFromQuote(tx, *in.QuoteID, in.BuyerID, &booking); err != nil {
				return err
			}
		} else {
			if err := s.priceFromPackage(tx, in, &booking); err != nil {
				return err
			}
		}
		return tx.Create(&booking).Error
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *BookingService) priceFromQuote(tx *gorm.DB, quoteID, buyerID uint, booking *models.Booking) error {
	var quote models.Quote
	if err := tx.First(&quote, quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &workflow.EntityNotFoundError{Entity: workflow.EntityQuote, EntityID: quoteID}
		}
		return err
	}
	if quote.Status != models.QuoteAccepted {
		return &workflow.InvalidTransitionError{
			Entity:       workflow.EntityQuote,
			EntityID:     quoteID,
			CurrentState: string(quote.Status),
			Action:       "consume",
		}
	}
	if quote.ServiceID == nil {
		return fmt.Errorf("quote %d is not a service quote", quoteID)
	}

	var membership models.ConversationParticipant
	err := tx.Where("conversation_id = ? AND user_id = ?", quote.ConversationID, buyerID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &workflow.ActorNotAuthorizedError{
				Entity:   workflow.EntityQuote,
				EntityID: quoteID,
				ActorID:  buyerID,
				Role:     models.RoleBuyer,
			}
		}
		return err
	}

	var svc models.Service
	if err := tx.First(&svc, *quote.ServiceID).Error; err != nil {
		return err
	}

	booking.ServiceID = *quote.ServiceID
	booking.PackageID = quote.ServicePackageID
	booking.SellerID = svc.SellerID
	booking.Amount = quote.QuotedPrice * float64(quote.Quantity)
	booking.QuoteID = &quote.ID
	booking.ConversationID = &quote.ConversationID
	return nil
}

func (s *BookingService) priceFromPackage(tx *gorm.DB, in CreateBookingInput, booking *models.Booking) error {
	if in.PackageID == nil {
		return fmt.Errorf("either a package or an accepted quote is required")
	}

	var svc models.Service
	if err := tx.First(&svc, in.ServiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("service %d not found", in.ServiceID)
		}
		return err
	}
	if !svc.IsActive {
		return fmt.Errorf("service %d is not available", in.ServiceID)
	}

	var pkg models.ServicePackage
	if err := tx.First(&pkg, *in.PackageID).Error; err != nil {
		return fmt.Errorf("service package %d not found", *in.PackageID)
	}
	if pkg.ServiceID != svc.ID {
		return fmt.Errorf("package %d does not belong to service %d", pkg.ID, svc.ID)
	}

	booking.ServiceID = svc.ID
	booking.PackageID = in.PackageID
	booking.SellerID = svc.SellerID
	booking.Amount = pkg.Price
	return nil
}

// Get loads a booking with its buyer preloaded
func (s *BookingService) Get(bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.Preload("Buyer").First(&booking, bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &workflow.EntityNotFoundError{Entity: workflow.EntityBooking, EntityID: bookingID}
		}
		return nil, err
	}
	return &booking, nil
}

// ListForUser returns the bookings visible to the user
func (s *BookingService) ListForUser(user *models.User) ([]models.Booking, error) {
	q := s.db.Order("scheduled_at DESC")
	switch user.Role {
	case models.RoleBuyer:
		q = q.Where("buyer_id = ?", user.ID)
	case models.RoleSeller:
		q = q.Where("seller_id = ?", user.ID)
	}

	var bookings []models.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}
