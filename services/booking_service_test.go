package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

func seedServiceWithPackage(t *testing.T, db *gorm.DB, sellerID uint) (models.Service, models.ServicePackage) {
	t.Helper()
	svc := models.Service{SellerID: sellerID, Name: "Bridal mehndi", IsActive: true}
	if err := db.Create(&svc).Error; err != nil {
		t.Fatalf("Failed to seed service: %v", err)
	}
	pkg := models.ServicePackage{ServiceID: svc.ID, Name: "Full package", Price: 250}
	if err := db.Create(&pkg).Error; err != nil {
		t.Fatalf("Failed to seed service package: %v", err)
	}
	return svc, pkg
}

func TestCreateBookingFromPackage(t *testing.T) {
	db := setupServiceTestDB(t)
	buyer, seller := seedBuyerSeller(t, db)
	service, pkg := seedServiceWithPackage(t, db, seller.ID)
	svc := NewBookingService(db)

	booking, err := svc.CreateBooking(CreateBookingInput{
		BuyerID:     buyer.ID,
		ServiceID:   service.ID,
		PackageID:   &pkg.ID,
		ScheduledAt: time.Now().Add(72 * time.Hour),
	})
	assert.NoError(t, err)
	assert.Equal(t, models.BookingPendingConfirmation, booking.Status)
	assert.Equal(t, seller.ID, booking.SellerID)
	assert.Equal(t, pkg.Price, booking.Amount)
}

func TestCreateBookingValidation(t *testing.T) {
	db := setupServiceTestDB(t)
	buyer, seller := seedBuyerSeller(t, db)
	service, pkg := seedServiceWithPackage(t, db, seller.ID)
	svc := NewBookingService(db)

	// Past schedule
	_, err := svc.CreateBooking(CreateBookingInput{
		BuyerID: buyer.ID, ServiceID: service.ID, PackageID: &pkg.ID,
		ScheduledAt: time.Now().Add(-time.Hour),
	})
	assert.Error(t, err)

	// Neither package nor quote
	_, err = svc.CreateBooking(CreateBookingInput{
		BuyerID: buyer.ID, ServiceID: service.ID,
		ScheduledAt: time.Now().Add(time.Hour),
	})
	assert.Error(t, err)

	// Package belonging to another service
	otherService, otherPkg := seedServiceWithPackage(t, db, seller.ID)
	_ = otherService
	_, err = svc.CreateBooking(CreateBookingInput{
		BuyerID: buyer.ID, ServiceID: service.ID, PackageID: &otherPkg.ID,
		ScheduledAt: time.Now().Add(time.Hour),
	})
	assert.Error(t, err)
}

func TestCreateBookingFromQuote(t *testing.T) {
	db := setupServiceTestDB(t)
	buyer, seller := seedBuyerSeller(t, db)
	service, _ := seedServiceWithPackage(t, db, seller.ID)

	conv := models.Conversation{
		Type:    models.ConversationPrePurchaseService,
		Subject: "Event booking",
		Status:  models.ConversationActive,
	}
	db.Create(&conv)
	db.Create(&models.ConversationParticipant{ConversationID: conv.ID, UserID: buyer.ID, Role: models.RoleBuyer})
	db.Create(&models.ConversationParticipant{ConversationID: conv.ID, UserID: seller.ID, Role: models.RoleSeller})

	quote := models.Quote{
		ConversationID: conv.ID,
		ServiceID:      &service.ID,
		QuotedPrice:    90,
		Quantity:       2,
		Status:         models.QuoteAccepted,
	}
	db.Create(&quote)
	svc := NewBookingService(db)

	booking, err := svc.CreateBooking(CreateBookingInput{
		BuyerID:     buyer.ID,
		ScheduledAt: time.Now().Add(24 * time.Hour),
		QuoteID:     &quote.ID,
	})
	assert.NoError(t, err)
	assert.Equal(t, service.ID, booking.ServiceID)
	assert.InDelta(t, 180.0, booking.Amount, 0.001, "quoted price times quantity")
	assert.Equal(t, conv.ID, *booking.ConversationID)

	// A non-participant cannot consume the quote
	stranger := models.User{Auth0ID: "auth0|stranger", Name: "S", Email: "s@example.com", Role: models.RoleBuyer}
	db.Create(&stranger)
	db.Model(&models.Quote{}).Where("id = ?", quote.ID).Update("status", models.QuoteAccepted)
	_, err = svc.CreateBooking(CreateBookingInput{
		BuyerID:     stranger.ID,
		ScheduledAt: time.Now().Add(24 * time.Hour),
		QuoteID:     &quote.ID,
	})
	var denied *workflow.ActorNotAuthorizedError
	assert.ErrorAs(t, err, &denied)
}

func TestListBookingsForUser(t *testing.T) {
	db := setupServiceTestDB(t)
	buyer, seller := seedBuyerSeller(t, db)

	early := models.Booking{BuyerID: buyer.ID, SellerID: seller.ID, ServiceID: 1, ScheduledAt: time.Now().Add(24 * time.Hour), Amount: 100, Status: models.BookingConfirmed}
	late := models.Booking{BuyerID: buyer.ID, SellerID: seller.ID, ServiceID: 1, ScheduledAt: time.Now().Add(48 * time.Hour), Amount: 100, Status: models.BookingConfirmed}
	db.Create(&early)
	db.Create(&late)
	svc := NewBookingService(db)

	bookings, err := svc.ListForUser(&buyer)
	assert.NoError(t, err)
	assert.Len(t, bookings, 2)
	assert.Equal(t, late.ID, bookings[0].ID, "latest schedule first")

	bookings, err = svc.ListForUser(&seller)
	assert.NoError(t, err)
	assert.Len(t, bookings, 2)
}
