package workflow

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/models"
)

// entityRef is the engine's uniform view of a loaded workflow entity:
// current state, optimistic version, the parties allowed to act on it, and
// the conversation its system messages land in.
type entityRef struct {
	entityType     EntityType
	id             uint
	state          string
	version        uint
	buyerID        *uint
	sellerID       *uint
	conversationID *uint
	model          interface{}
}

func loadEntity(tx *gorm.DB, entity EntityType, id uint) (*entityRef, error) {
	notFound := func(err error) error {
		if err == gorm.ErrRecordNotFound {
			return &EntityNotFoundError{Entity: entity, EntityID: id}
		}
		return err
	}

	switch entity {
	case EntityOrder:
		var o models.Order
		if err := tx.First(&o, id).Error; err != nil {
			return nil, notFound(err)
		}
		return &entityRef{
			entityType: entity, id: id,
			state: string(o.Status), version: o.Version,
			buyerID: &o.BuyerID, sellerID: &o.SellerID,
			conversationID: o.ConversationID, model: &o,
		}, nil

	case EntityBooking:
		var b models.Booking
		if err := tx.First(&b, id).Error; err != nil {
			return nil, notFound(err)
		}
		return &entityRef{
			entityType: entity, id: id,
			state: string(b.Status), version: b.Version,
			buyerID: &b.BuyerID, sellerID: &b.SellerID,
			conversationID: b.ConversationID, model: &b,
		}, nil

	case EntityQuote:
		var q models.Quote
		if err := tx.First(&q, id).Error; err != nil {
			return nil, notFound(err)
		}
		ref := &entityRef{
			entityType: entity, id: id,
			state: string(q.Status), version: q.Version,
			conversationID: &q.ConversationID, model: &q,
		}
		// Quote parties come from the conversation membership
		var participants []models.ConversationParticipant
		if err := tx.Where("conversation_id = ?", q.ConversationID).Find(&participants).Error; err != nil {
			return nil, err
		}
		for i := range participants {
			p := participants[i]
			switch p.Role {
			case models.RoleBuyer:
				ref.buyerID = &participants[i].UserID
			case models.RoleSeller:
				ref.sellerID = &participants[i].UserID
			}
		}
		return ref, nil

	case EntityDesignApproval:
		var d models.DesignApproval
		if err := tx.First(&d, id).Error; err != nil {
			return nil, notFound(err)
		}
		ref := &entityRef{
			entityType: entity, id: id,
			state: string(d.Status), version: d.Version,
			buyerID: &d.BuyerID, conversationID: &d.ConversationID, model: &d,
		}
		// Only the seller scoped to the item may act; resolve from the catalog
		sellerID, err := itemSellerID(tx, d.ProductID, d.ServiceID)
		if err != nil {
			return nil, err
		}
		ref.sellerID = sellerID
		return ref, nil

	case EntityReturnRequest:
		var r models.ReturnRequest
		if err := tx.First(&r, id).Error; err != nil {
			return nil, notFound(err)
		}
		ref := &entityRef{
			entityType: entity, id: id,
			state: string(r.Status), version: r.Version,
			buyerID: &r.BuyerID, sellerID: &r.SellerID, model: &r,
		}
		// System messages go to the conversation of the disputed order/booking
		if r.OrderID != nil {
			var o models.Order
			if err := tx.First(&o, *r.OrderID).Error; err == nil {
				ref.conversationID = o.ConversationID
			}
		} else if r.BookingID != nil {
			var b models.Booking
			if err := tx.First(&b, *r.BookingID).Error; err == nil {
				ref.conversationID = b.ConversationID
			}
		}
		return ref, nil

	case EntityBoostPurchase:
		var p models.BoostPurchase
		if err := tx.First(&p, id).Error; err != nil {
			return nil, notFound(err)
		}
		return &entityRef{
			entityType: entity, id: id,
			state: string(p.Status), version: p.Version,
			sellerID: &p.SellerID, model: &p,
		}, nil
	}

	return nil, &EntityNotFoundError{Entity: entity, EntityID: id}
}

// itemSellerID resolves the owning seller of a product or service
func itemSellerID(tx *gorm.DB, productID, serviceID *uint) (*uint, error) {
	if productID != nil {
		var p models.Product
		if err := tx.First(&p, *productID).Error; err != nil {
			return nil, err
		}
		return &p.SellerID, nil
	}
	if serviceID != nil {
		var s models.Service
		if err := tx.First(&s, *serviceID).Error; err != nil {
			return nil, err
		}
		return &s.SellerID, nil
	}
	return nil, nil
}

// authorizeActor checks the actor is a permitted party for this entity.
// Role legality for the specific action is checked separately against the
// transition table.
func (ref *entityRef) authorizeActor(tx *gorm.DB, actorID uint, role models.Role, action Action) error {
	switch role {
	case models.RoleAdmin:
		return nil
	case models.RoleBuyer:
		if ref.buyerID != nil && *ref.buyerID == actorID {
			return nil
		}
	case models.RoleSeller:
		if ref.sellerID != nil && *ref.sellerID == actorID {
			return nil
		}
	}
	return &ActorNotAuthorizedError{
		Entity: ref.entityType, EntityID: ref.id,
		ActorID: actorID, Role: role, Action: action,
	}
}

// counterparties returns every party except the actor, for notifications
func (ref *entityRef) counterparties(actorID uint) []uint {
	var out []uint
	if ref.buyerID != nil && *ref.buyerID != actorID {
		out = append(out, *ref.buyerID)
	}
	if ref.sellerID != nil && *ref.sellerID != actorID {
		out = append(out, *ref.sellerID)
	}
	return out
}

// extraUpdates maps payload fields onto columns for actions that carry data
func (ref *entityRef) extraUpdates(action Action, payload Payload) map[string]interface{} {
	extra := map[string]interface{}{}
	switch ref.entityType {
	case EntityOrder:
		if action == ActionReadyToShip {
			extra["ready_to_ship"] = true
		}
		if action == ActionShip {
			if payload.Carrier != nil {
				extra["carrier"] = *payload.Carrier
			}
			if payload.TrackingNumber != nil {
				extra["tracking_number"] = *payload.TrackingNumber
			}
		}
	case EntityDesignApproval:
		if payload.SellerNotes != nil {
			extra["seller_notes"] = *payload.SellerNotes
		}
	case EntityReturnRequest:
		if action == ActionSellerApprove || action == ActionSellerReject {
			if payload.SellerResponse != nil {
				extra["seller_response"] = *payload.SellerResponse
			}
			if payload.SellerProposedRefundAmount != nil {
				extra["seller_proposed_refund_amount"] = *payload.SellerProposedRefundAmount
			}
		}
	case EntityBoostPurchase:
		if payload.PaymentReference != nil {
			extra["payment_reference"] = *payload.PaymentReference
		}
	}
	return extra
}

// runSideEffects executes the cross-entity mutations a transition triggers,
// inside the same transaction as the transition itself.
func (e *Engine) runSideEffects(tx *gorm.DB, ref *entityRef, action Action, to string, result *Result) error {
	switch {
	case ref.entityType == EntityBooking && action == ActionConfirm:
		return e.autoAdvanceBooking(tx, ref, result)

	case ref.entityType == EntityOrder && to == string(models.OrderDelivered):
		order := ref.model.(*models.Order)
		return e.recordCommission(tx, order.SellerID, &ref.id, nil, order.Total(), result)

	case ref.entityType == EntityBooking && to == string(models.BookingCompleted):
		booking := ref.model.(*models.Booking)
		return e.recordCommission(tx, booking.SellerID, nil, &ref.id, booking.Amount, result)

	case ref.entityType == EntityReturnRequest && to == string(models.ReturnRefunded):
		return e.reverseCommission(tx, ref.model.(*models.ReturnRequest), result)

	case ref.entityType == EntityBoostPurchase && to == string(models.BoostPaid):
		return e.activateBoost(tx, ref.model.(*models.BoostPurchase), result)
	}
	return nil
}

// autoAdvanceBooking moves a just-confirmed booking straight to
// pending_payment, per the booking invariant.
func (e *Engine) autoAdvanceBooking(tx *gorm.DB, ref *entityRef, result *Result) error {
	res := tx.Model(&models.Booking{}).
		Where("id = ? AND version = ?", ref.id, ref.version+1).
		Updates(map[string]interface{}{
			"status":  models.BookingPendingPayment,
			"version": ref.version + 2,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &ConcurrentModificationError{Entity: EntityBooking, EntityID: ref.id}
	}
	result.ToState = string(models.BookingPendingPayment)
	result.SideEffects = append(result.SideEffects, SideEffect{
		Type: EffectBookingAutoAdvance, EntityID: ref.id,
	})
	return nil
}

// recordCommission appends an earned ledger row: sellerPayout = amount x (1 - rate)
func (e *Engine) recordCommission(tx *gorm.DB, sellerID uint, orderID, bookingID *uint, gross float64, result *Result) error {
	entry := models.CommissionEntry{
		SellerID:       sellerID,
		OrderID:        orderID,
		BookingID:      bookingID,
		Type:           models.CommissionEarned,
		GrossAmount:    gross,
		CommissionRate: e.commissionRate,
		CommissionOwed: gross * e.commissionRate,
		SellerPayout:   gross * (1 - e.commissionRate),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}
	result.SideEffects = append(result.SideEffects, SideEffect{
		Type: EffectCommissionRecorded, EntityID: entry.ID,
	})
	return nil
}

// reverseCommission appends a negating ledger row for the refunded
// order/booking. The original entry is never mutated.
func (e *Engine) reverseCommission(tx *gorm.DB, ret *models.ReturnRequest, result *Result) error {
	query := tx.Where("seller_id = ? AND type = ?", ret.SellerID, models.CommissionEarned)
	if ret.OrderID != nil {
		query = query.Where("order_id = ?", *ret.OrderID)
	} else if ret.BookingID != nil {
		query = query.Where("booking_id = ?", *ret.BookingID)
	}

	var original models.CommissionEntry
	if err := query.First(&original).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// Nothing earned yet (refund before completion); no reversal needed
			return nil
		}
		return err
	}

	reversal := models.CommissionEntry{
		SellerID:        original.SellerID,
		OrderID:         original.OrderID,
		BookingID:       original.BookingID,
		Type:            models.CommissionReversed,
		GrossAmount:     -original.GrossAmount,
		CommissionRate:  original.CommissionRate,
		CommissionOwed:  -original.CommissionOwed,
		SellerPayout:    -original.SellerPayout,
		ReversesEntryID: &original.ID,
	}
	if err := tx.Create(&reversal).Error; err != nil {
		return err
	}
	result.SideEffects = append(result.SideEffects, SideEffect{
		Type: EffectCommissionReversed, EntityID: reversal.ID,
	})
	return nil
}

// activateBoost enforces the single-active-boost invariant at confirmation
// time: an existing active window is extended, never duplicated. The
// re-check happens here because bank transfers confirm asynchronously.
func (e *Engine) activateBoost(tx *gorm.DB, purchase *models.BoostPurchase, result *Result) error {
	var pkg models.BoostPackage
	if err := tx.First(&pkg, purchase.PackageID).Error; err != nil {
		return err
	}

	now := time.Now()
	var active []models.BoostedItem
	if err := tx.Where("item_id = ? AND item_type = ? AND is_active = ?",
		purchase.ItemID, purchase.ItemType, true).Find(&active).Error; err != nil {
		return err
	}

	switch len(active) {
	case 0:
		item := models.BoostedItem{
			ItemID:    purchase.ItemID,
			ItemType:  purchase.ItemType,
			PackageID: purchase.PackageID,
			StartDate: now,
			EndDate:   now.AddDate(0, 0, pkg.DurationDays),
			IsActive:  true,
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		result.SideEffects = append(result.SideEffects, SideEffect{
			Type: EffectBoostActivated, EntityID: item.ID,
		})
		return nil

	case 1:
		existing := active[0]
		if now.After(existing.EndDate) {
			// Window lapsed but was never deactivated; start a fresh one
			if err := tx.Model(&existing).Update("is_active", false).Error; err != nil {
				return err
			}
			item := models.BoostedItem{
				ItemID:    purchase.ItemID,
				ItemType:  purchase.ItemType,
				PackageID: purchase.PackageID,
				StartDate: now,
				EndDate:   now.AddDate(0, 0, pkg.DurationDays),
				IsActive:  true,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			result.SideEffects = append(result.SideEffects, SideEffect{
				Type: EffectBoostActivated, EntityID: item.ID,
			})
			return nil
		}
		end := existing.EndDate.AddDate(0, 0, pkg.DurationDays)
		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"end_date":   end,
			"package_id": purchase.PackageID,
		}).Error; err != nil {
			return err
		}
		result.SideEffects = append(result.SideEffects, SideEffect{
			Type: EffectBoostExtended, EntityID: existing.ID,
		})
		return nil

	default:
		return &DuplicateActiveResourceError{
			Resource: "boosted_item",
			Detail:   fmt.Sprintf("%s %d has %d active boost windows", purchase.ItemType, purchase.ItemID, len(active)),
		}
	}
}
