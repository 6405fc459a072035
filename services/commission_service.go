package services

import (
	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/models"
)

// CommissionService reads the commission ledger. Entries are written by the
// workflow engine on completion/delivery and reversed on approved refunds.
type CommissionService struct {
	db *gorm.DB
}

// NewCommissionService creates a commission service bound to a database handle
func NewCommissionService(db *gorm.DB) *CommissionService {
	return &CommissionService{db: db}
}

// Entries returns a seller's ledger rows, newest first
func (s *CommissionService) Entries(sellerID uint) ([]models.CommissionEntry, error) {
	var entries []models.CommissionEntry
	err := s.db.Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

// PayoutBalance sums a seller's net payout across earned and reversed rows
func (s *CommissionService) PayoutBalance(sellerID uint) (float64, error) {
	var total float64
	err := s.db.Model(&models.CommissionEntry{}).
		Where("seller_id = ?", sellerID).
		Select("COALESCE(SUM(seller_payout), 0)").
		Scan(&total).Error
	return total, err
}
