package workflow

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/models"
)

// Payload carries action-specific fields into a transition. Unused fields
// are ignored by actions that do not consume them.
type Payload struct {
	Carrier                    *string
	TrackingNumber             *string
	SellerNotes                *string
	SellerResponse             *string
	SellerProposedRefundAmount *float64
	PaymentReference           *string
}

// SideEffect describes one cross-entity mutation performed inside the
// transition's transaction, returned so the caller can decide what to
// broadcast.
type SideEffect struct {
	Type     string `json:"type"`
	EntityID uint   `json:"entity_id,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Side effect types produced by the engine
const (
	EffectSystemMessage      = "system_message"
	EffectNotification       = "notification"
	EffectBookingAutoAdvance = "booking_auto_pending_payment"
	EffectCommissionRecorded = "commission_recorded"
	EffectCommissionReversed = "commission_reversed"
	EffectBoostActivated     = "boost_activated"
	EffectBoostExtended      = "boost_extended"
	EffectQuoteExpired       = "quote_expired"
)

// Result is the outcome of a successful transition
type Result struct {
	EntityType     EntityType      `json:"entity_type"`
	EntityID       uint            `json:"entity_id"`
	FromState      string          `json:"from_state"`
	ToState        string          `json:"to_state"`
	Entity         interface{}     `json:"entity"`
	ConversationID *uint           `json:"conversation_id,omitempty"`
	SystemMessage  *models.Message `json:"system_message,omitempty"`
	SideEffects    []SideEffect    `json:"side_effects"`
}

// Engine applies state transitions for all workflow entities. It is the
// sole authority on transition legality and actor permission.
type Engine struct {
	db             *gorm.DB
	commissionRate float64
}

// NewEngine creates a workflow engine bound to a database handle
func NewEngine(db *gorm.DB, commissionRate float64) *Engine {
	return &Engine{db: db, commissionRate: commissionRate}
}

// ApplyTransition validates and applies one workflow action. The mutation,
// its side effects, the system message, and notification rows all commit in
// a single transaction. On an optimistic version conflict the engine
// reloads and retries exactly once before surfacing the error.
func (e *Engine) ApplyTransition(entity EntityType, entityID uint, action Action, actorID uint, role models.Role, payload Payload) (*Result, error) {
	result, err := e.applyOnce(entity, entityID, action, actorID, role, payload)
	var conflict *ConcurrentModificationError
	if errors.As(err, &conflict) {
		result, err = e.applyOnce(entity, entityID, action, actorID, role, payload)
	}
	return result, err
}

func (e *Engine) applyOnce(entity EntityType, entityID uint, action Action, actorID uint, role models.Role, payload Payload) (*Result, error) {
	// Lazy quote expiry is authoritative at accept time. The expired status
	// must persist even though the accept itself fails, so it is written
	// outside the transition's transaction.
	if entity == EntityQuote && action == ActionAccept {
		if err := e.expireQuoteIfDue(entityID, action, role); err != nil {
			return nil, err
		}
	}

	var result *Result
	err := e.db.Transaction(func(tx *gorm.DB) error {
		ref, err := loadEntity(tx, entity, entityID)
		if err != nil {
			return err
		}

		if err := ref.authorizeActor(tx, actorID, role, action); err != nil {
			return err
		}

		to, ok := Resolve(entity, ref.state, action, role)
		if !ok {
			// A lost race whose winner already applied this action's target
			// state is an idempotent no-op, not an error.
			if ActionYieldsState(entity, action, role, ref.state) {
				result = &Result{
					EntityType:     entity,
					EntityID:       entityID,
					FromState:      ref.state,
					ToState:        ref.state,
					Entity:         ref.model,
					ConversationID: ref.conversationID,
				}
				return nil
			}
			if ActionPermittedInState(entity, ref.state, action) {
				return &ActorNotAuthorizedError{
					Entity: entity, EntityID: entityID,
					ActorID: actorID, Role: role, Action: action,
				}
			}
			return &InvalidTransitionError{
				Entity: entity, EntityID: entityID,
				CurrentState: ref.state, Action: action, Role: role,
			}
		}

		extra := ref.extraUpdates(action, payload)
		if err := bumpStatus(tx, ref, to, extra); err != nil {
			return err
		}

		result = &Result{
			EntityType:     entity,
			EntityID:       entityID,
			FromState:      ref.state,
			ToState:        to,
			ConversationID: ref.conversationID,
		}

		if err := e.runSideEffects(tx, ref, action, to, result); err != nil {
			return err
		}

		if ref.conversationID != nil {
			msg, err := appendSystemMessage(tx, *ref.conversationID, systemMessageText(entity, action, to))
			if err != nil {
				return err
			}
			result.SystemMessage = msg
			result.SideEffects = append(result.SideEffects, SideEffect{
				Type: EffectSystemMessage, EntityID: msg.ID,
			})
		}

		if err := e.notifyCounterparties(tx, ref, entity, action, to, actorID, result); err != nil {
			return err
		}

		// Reload the mutated row so callers see the committed state
		fresh, err := loadEntity(tx, entity, entityID)
		if err != nil {
			return err
		}
		result.Entity = fresh.model
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// expireQuoteIfDue flips a past-deadline quote to expired and fails the
// accept with an InvalidTransition naming the expired state.
func (e *Engine) expireQuoteIfDue(quoteID uint, action Action, role models.Role) error {
	var quote models.Quote
	if err := e.db.First(&quote, quoteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &EntityNotFoundError{Entity: EntityQuote, EntityID: quoteID}
		}
		return err
	}
	if !quote.IsExpiredAt(time.Now()) || quote.Status.IsTerminal() {
		return nil
	}
	if err := e.db.Model(&models.Quote{}).
		Where("id = ? AND version = ?", quoteID, quote.Version).
		Updates(map[string]interface{}{
			"status":  models.QuoteExpired,
			"version": quote.Version + 1,
		}).Error; err != nil {
		return err
	}
	return &InvalidTransitionError{
		Entity: EntityQuote, EntityID: quoteID,
		CurrentState: string(models.QuoteExpired),
		Action:       action, Role: role,
	}
}

// bumpStatus performs the optimistic-locked status update. RowsAffected of
// zero means another transition won the race.
func bumpStatus(tx *gorm.DB, ref *entityRef, to string, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":  to,
		"version": ref.version + 1,
	}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(ref.model).
		Where("id = ? AND version = ?", ref.id, ref.version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &ConcurrentModificationError{Entity: ref.entityType, EntityID: ref.id}
	}
	return nil
}

// appendSystemMessage inserts a workflow-generated message, allocating the
// next sequence number under the conversation row lock.
func appendSystemMessage(tx *gorm.DB, conversationID uint, content string) (*models.Message, error) {
	res := tx.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("last_seq", gorm.Expr("last_seq + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &EntityNotFoundError{Entity: "conversation", EntityID: conversationID}
	}

	var conv models.Conversation
	if err := tx.First(&conv, conversationID).Error; err != nil {
		return nil, err
	}

	msg := models.Message{
		ConversationID: conversationID,
		IsSystem:       true,
		Content:        content,
		Seq:            conv.LastSeq,
	}
	if err := tx.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// notifyCounterparties records a notification row for every party other
// than the actor. Delivery is by client poll; nothing here blocks.
func (e *Engine) notifyCounterparties(tx *gorm.DB, ref *entityRef, entity EntityType, action Action, to string, actorID uint, result *Result) error {
	title := systemMessageText(entity, action, to)
	link := fmt.Sprintf("/%ss/%d", entity, ref.id)
	for _, userID := range ref.counterparties(actorID) {
		n := models.Notification{
			UserID:  userID,
			Type:    notificationType(entity),
			Title:   title,
			Message: fmt.Sprintf("%s #%d is now %s", entityLabel(entity), ref.id, to),
			Link:    link,
		}
		if err := tx.Create(&n).Error; err != nil {
			return err
		}
		result.SideEffects = append(result.SideEffects, SideEffect{
			Type: EffectNotification, EntityID: n.ID,
		})
	}
	return nil
}

func notificationType(entity EntityType) models.NotificationType {
	switch entity {
	case EntityOrder:
		return models.NotifOrder
	case EntityBooking:
		return models.NotifBooking
	case EntityQuote:
		return models.NotifQuote
	case EntityDesignApproval:
		return models.NotifDesign
	case EntityReturnRequest:
		return models.NotifReturn
	case EntityBoostPurchase:
		return models.NotifBoost
	}
	return models.NotifConversation
}

func entityLabel(entity EntityType) string {
	switch entity {
	case EntityOrder:
		return "Order"
	case EntityBooking:
		return "Booking"
	case EntityQuote:
		return "Quote"
	case EntityDesignApproval:
		return "Design approval"
	case EntityReturnRequest:
		return "Return request"
	case EntityBoostPurchase:
		return "Boost purchase"
	}
	return string(entity)
}

// systemMessageText builds the text appended to the linked conversation
func systemMessageText(entity EntityType, action Action, to string) string {
	switch {
	case entity == EntityQuote && action == ActionAccept:
		return "Quote accepted"
	case entity == EntityQuote && action == ActionReject:
		return "Quote declined"
	case entity == EntityQuote && action == ActionSend:
		return "Quote sent"
	case entity == EntityBooking && action == ActionConfirm:
		return "Booking confirmed, awaiting payment"
	case entity == EntityOrder && action == ActionReadyToShip:
		return "Order marked ready to ship"
	case entity == EntityReturnRequest && action == ActionRefund:
		return "Refund issued"
	}
	return fmt.Sprintf("%s %s", entityLabel(entity), to)
}

// LogPublishFailure records a broadcast failure. Publishing is
// fire-and-forget: failures never roll back the underlying transition.
func LogPublishFailure(conversationID uint, err error) {
	log.Printf("broadcast to conversation %d failed: %v", conversationID, err)
}
