package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

// BoostService creates boost purchases. Confirmation, failure, and the
// activation side effect go through the workflow engine, where the
// single-active-boost invariant is re-checked.
type BoostService struct {
	db *gorm.DB
}

// NewBoostService creates a boost service bound to a database handle
func NewBoostService(db *gorm.DB) *BoostService {
	return &BoostService{db: db}
}

// PurchaseBoostInput carries a seller's boost purchase
type PurchaseBoostInput struct {
	SellerID       uint
	PackageID      uint
	ItemID         uint
	ItemType       models.BoostItemType
	PaymentMethod  models.BoostPaymentMethod
	PaymentSlipURL *string
}

// PurchaseBoost records a pending boost purchase after verifying the seller
// owns the item being promoted. Amount comes from the package, never the
// client. Bank-transfer purchases move to processing once the slip is
// attached; the invariant check happens at activation, not here.
func (s *BoostService) PurchaseBoost(in PurchaseBoostInput) (*models.BoostPurchase, error) {
	if err := s.verifyItemOwnership(in.SellerID, in.ItemID, in.ItemType); err != nil {
		return nil, err
	}

	var pkg models.BoostPackage
	if err := s.db.First(&pkg, in.PackageID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("boost package %d not found", in.PackageID)
		}
		return nil, err
	}
	if !pkg.IsActive {
		return nil, fmt.Errorf("boost package %d is no longer offered", in.PackageID)
	}

	purchase := models.BoostPurchase{
		SellerID:       in.SellerID,
		PackageID:      in.PackageID,
		ItemID:         in.ItemID,
		ItemType:       in.ItemType,
		PaymentMethod:  in.PaymentMethod,
		Amount:         pkg.Price,
		Status:         models.BoostPending,
		PaymentSlipURL: in.PaymentSlipURL,
	}
	if err := s.db.Create(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (s *BoostService) verifyItemOwnership(sellerID, itemID uint, itemType models.BoostItemType) error {
	switch itemType {
	case models.BoostItemProduct:
		var p models.Product
		if err := s.db.First(&p, itemID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &workflow.EntityNotFoundError{Entity: "product", EntityID: itemID}
			}
			return err
		}
		if p.SellerID != sellerID {
			return &workflow.ActorNotAuthorizedError{
				Entity: workflow.EntityBoostPurchase, ActorID: sellerID,
				Role: models.RoleSeller, Action: "purchase",
			}
		}
	case models.BoostItemService:
		var sv models.Service
		if err := s.db.First(&sv, itemID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &workflow.EntityNotFoundError{Entity: "service", EntityID: itemID}
			}
			return err
		}
		if sv.SellerID != sellerID {
			return &workflow.ActorNotAuthorizedError{
				Entity: workflow.EntityBoostPurchase, ActorID: sellerID,
				Role: models.RoleSeller, Action: "purchase",
			}
		}
	default:
		return fmt.Errorf("unknown boost item type %q", itemType)
	}
	return nil
}

// AttachPaymentSlip stores the slip reference on a pending bank-transfer
// purchase. The status move to processing goes through the engine.
func (s *BoostService) AttachPaymentSlip(purchaseID, sellerID uint, slipURL string) error {
	var purchase models.BoostPurchase
	if err := s.db.First(&purchase, purchaseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &workflow.EntityNotFoundError{Entity: workflow.EntityBoostPurchase, EntityID: purchaseID}
		}
		return err
	}
	if purchase.SellerID != sellerID {
		return &workflow.ActorNotAuthorizedError{
			Entity: workflow.EntityBoostPurchase, EntityID: purchaseID,
			ActorID: sellerID, Role: models.RoleSeller, Action: "attach_slip",
		}
	}
	if purchase.PaymentMethod != models.BoostPaymentBankTransfer {
		return fmt.Errorf("payment slips only apply to bank transfer purchases")
	}
	return s.db.Model(&purchase).Update("payment_slip_url", slipURL).Error
}

// ActiveBoost returns the current active window for an item, if any
func (s *BoostService) ActiveBoost(itemID uint, itemType models.BoostItemType) (*models.BoostedItem, error) {
	var item models.BoostedItem
	err := s.db.Where("item_id = ? AND item_type = ? AND is_active = ?", itemID, itemType, true).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListPackages returns the purchasable boost tiers
func (s *BoostService) ListPackages() ([]models.BoostPackage, error) {
	var packages []models.BoostPackage
	err := s.db.Where("is_active = ?", true).Order("price ASC").Find(&packages).Error
	return packages, err
}

// FindByPaymentReference locates a purchase by the gateway's reference id
func (s *BoostService) FindByPaymentReference(reference string) (*models.BoostPurchase, error) {
	var purchase models.BoostPurchase
	err := s.db.Where("payment_reference = ?", reference).First(&purchase).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}
