package workflow

import (
	"github.com/craftlink-lk/craftlink-api/models"
)

// EntityType names a workflow-managed entity
type EntityType string

const (
	EntityOrder          EntityType = "order"
	EntityBooking        EntityType = "booking"
	EntityQuote          EntityType = "quote"
	EntityDesignApproval EntityType = "design_approval"
	EntityReturnRequest  EntityType = "return_request"
	EntityBoostPurchase  EntityType = "boost_purchase"
)

// Action is a workflow verb requested by an actor
type Action string

const (
	// Order actions
	ActionPay         Action = "pay"
	ActionProcess     Action = "process"
	ActionReadyToShip Action = "ready_to_ship"
	ActionShip        Action = "ship"
	ActionDeliver     Action = "deliver"
	ActionCancel      Action = "cancel"

	// Booking actions
	ActionConfirm  Action = "confirm"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"

	// Quote actions
	ActionAcknowledge Action = "acknowledge"
	ActionSend        Action = "send"
	ActionAccept      Action = "accept"
	ActionReject      Action = "reject"

	// Design approval actions
	ActionApprove        Action = "approve"
	ActionRequestChanges Action = "request_changes"

	// Return actions
	ActionReview        Action = "review"
	ActionSellerApprove Action = "seller_approve"
	ActionSellerReject  Action = "seller_reject"
	ActionAdminApprove  Action = "admin_approve"
	ActionAdminReject   Action = "admin_reject"
	ActionRefund        Action = "refund"

	// Boost actions
	ActionMarkProcessing Action = "mark_processing"
	ActionFail           Action = "fail"
)

// edge is one permitted move in a state machine
type edge struct {
	Role models.Role
	To   string
}

// transitionKey addresses the edge set for a (state, action) pair
type transitionKey struct {
	From   string
	Action Action
}

// table is a directed transition graph. Absent keys mean the move is
// illegal; terminal states simply have no outgoing keys.
type table map[transitionKey][]edge

func (t table) resolve(from string, action Action, role models.Role) (string, bool) {
	for _, e := range t[transitionKey{From: from, Action: action}] {
		if e.Role == role {
			return e.To, true
		}
	}
	return "", false
}

// actionKnown reports whether any edge exists for (from, action), used to
// distinguish a wrong-role attempt from a wrong-state attempt.
func (t table) actionKnown(from string, action Action) bool {
	return len(t[transitionKey{From: from, Action: action}]) > 0
}

var orderTable = table{
	{string(models.OrderPendingPayment), ActionPay}: {
		{models.RoleAdmin, string(models.OrderPaid)}, // gateway callback lands as admin
	},
	{string(models.OrderPaid), ActionProcess}: {
		{models.RoleSeller, string(models.OrderProcessing)},
		{models.RoleAdmin, string(models.OrderProcessing)},
	},
	// ready_to_ship flags the order without leaving processing
	{string(models.OrderProcessing), ActionReadyToShip}: {
		{models.RoleSeller, string(models.OrderProcessing)},
	},
	// shipping happens only via admin consolidation, never directly by seller
	{string(models.OrderProcessing), ActionShip}: {
		{models.RoleAdmin, string(models.OrderShipped)},
	},
	{string(models.OrderShipped), ActionDeliver}: {
		{models.RoleAdmin, string(models.OrderDelivered)},
	},
	{string(models.OrderPendingPayment), ActionCancel}: {
		{models.RoleBuyer, string(models.OrderCancelled)},
		{models.RoleSeller, string(models.OrderCancelled)},
		{models.RoleAdmin, string(models.OrderCancelled)},
	},
	{string(models.OrderPaid), ActionCancel}: {
		{models.RoleSeller, string(models.OrderCancelled)},
		{models.RoleAdmin, string(models.OrderCancelled)},
	},
	{string(models.OrderProcessing), ActionCancel}: {
		{models.RoleAdmin, string(models.OrderCancelled)},
	},
	{string(models.OrderShipped), ActionCancel}: {
		{models.RoleAdmin, string(models.OrderCancelled)},
	},
}

var bookingTable = table{
	{string(models.BookingPendingConfirmation), ActionConfirm}: {
		{models.RoleSeller, string(models.BookingConfirmed)},
	},
	// only admin (or the gateway callback acting as admin) may mark paid
	{string(models.BookingPendingPayment), ActionPay}: {
		{models.RoleAdmin, string(models.BookingPaid)},
	},
	{string(models.BookingPaid), ActionStart}: {
		{models.RoleSeller, string(models.BookingOngoing)},
	},
	{string(models.BookingOngoing), ActionComplete}: {
		{models.RoleSeller, string(models.BookingCompleted)},
		{models.RoleAdmin, string(models.BookingCompleted)},
	},
	{string(models.BookingPendingConfirmation), ActionCancel}: {
		{models.RoleBuyer, string(models.BookingCancelled)},
		{models.RoleSeller, string(models.BookingCancelled)},
		{models.RoleAdmin, string(models.BookingCancelled)},
	},
	{string(models.BookingConfirmed), ActionCancel}: {
		{models.RoleBuyer, string(models.BookingCancelled)},
		{models.RoleSeller, string(models.BookingCancelled)},
		{models.RoleAdmin, string(models.BookingCancelled)},
	},
	{string(models.BookingPendingPayment), ActionCancel}: {
		{models.RoleBuyer, string(models.BookingCancelled)},
		{models.RoleAdmin, string(models.BookingCancelled)},
	},
	{string(models.BookingPaid), ActionCancel}: {
		{models.RoleAdmin, string(models.BookingCancelled)},
	},
	{string(models.BookingOngoing), ActionCancel}: {
		{models.RoleAdmin, string(models.BookingCancelled)},
	},
}

var quoteTable = table{
	{string(models.QuoteRequested), ActionAcknowledge}: {
		{models.RoleSeller, string(models.QuotePending)},
	},
	{string(models.QuoteRequested), ActionSend}: {
		{models.RoleSeller, string(models.QuoteSent)},
	},
	{string(models.QuotePending), ActionSend}: {
		{models.RoleSeller, string(models.QuoteSent)},
	},
	{string(models.QuoteSent), ActionAccept}: {
		{models.RoleBuyer, string(models.QuoteAccepted)},
	},
	{string(models.QuoteSent), ActionReject}: {
		{models.RoleBuyer, string(models.QuoteRejected)},
	},
}

var designTable = table{
	{string(models.DesignPending), ActionApprove}: {
		{models.RoleSeller, string(models.DesignApproved)},
	},
	{string(models.DesignPending), ActionReject}: {
		{models.RoleSeller, string(models.DesignRejected)},
	},
	{string(models.DesignPending), ActionRequestChanges}: {
		{models.RoleSeller, string(models.DesignChangesRequested)},
	},
}

var returnTable = table{
	{string(models.ReturnRequested), ActionReview}: {
		{models.RoleSeller, string(models.ReturnUnderReview)},
	},
	{string(models.ReturnRequested), ActionSellerApprove}: {
		{models.RoleSeller, string(models.ReturnSellerApproved)},
	},
	{string(models.ReturnRequested), ActionSellerReject}: {
		{models.RoleSeller, string(models.ReturnSellerRejected)},
	},
	{string(models.ReturnUnderReview), ActionSellerApprove}: {
		{models.RoleSeller, string(models.ReturnSellerApproved)},
	},
	{string(models.ReturnUnderReview), ActionSellerReject}: {
		{models.RoleSeller, string(models.ReturnSellerRejected)},
	},
	{string(models.ReturnSellerApproved), ActionAdminApprove}: {
		{models.RoleAdmin, string(models.ReturnAdminApproved)},
	},
	{string(models.ReturnSellerApproved), ActionAdminReject}: {
		{models.RoleAdmin, string(models.ReturnAdminRejected)},
	},
	{string(models.ReturnSellerRejected), ActionAdminApprove}: {
		{models.RoleAdmin, string(models.ReturnAdminApproved)},
	},
	{string(models.ReturnSellerRejected), ActionAdminReject}: {
		{models.RoleAdmin, string(models.ReturnAdminRejected)},
	},
	{string(models.ReturnAdminApproved), ActionRefund}: {
		{models.RoleAdmin, string(models.ReturnRefunded)},
	},
	{string(models.ReturnAdminApproved), ActionComplete}: {
		{models.RoleAdmin, string(models.ReturnCompleted)},
	},
}

var boostTable = table{
	{string(models.BoostPending), ActionMarkProcessing}: {
		{models.RoleSeller, string(models.BoostProcessing)}, // slip uploaded, awaiting admin
	},
	{string(models.BoostPending), ActionPay}: {
		{models.RoleAdmin, string(models.BoostPaid)}, // IPG callback
	},
	{string(models.BoostProcessing), ActionConfirm}: {
		{models.RoleAdmin, string(models.BoostPaid)}, // bank transfer verified
	},
	{string(models.BoostPending), ActionFail}: {
		{models.RoleAdmin, string(models.BoostFailed)},
	},
	{string(models.BoostProcessing), ActionFail}: {
		{models.RoleAdmin, string(models.BoostFailed)},
	},
	{string(models.BoostPending), ActionCancel}: {
		{models.RoleSeller, string(models.BoostCancelled)},
		{models.RoleAdmin, string(models.BoostCancelled)},
	},
}

// tables is the single authority on transition legality. Client-side
// next-state hints are optimistic display only and are revalidated here.
var tables = map[EntityType]table{
	EntityOrder:          orderTable,
	EntityBooking:        bookingTable,
	EntityQuote:          quoteTable,
	EntityDesignApproval: designTable,
	EntityReturnRequest:  returnTable,
	EntityBoostPurchase:  boostTable,
}

// Resolve looks up the target state for (entity, from, action, role).
// The second return value is false when no such edge exists.
func Resolve(entity EntityType, from string, action Action, role models.Role) (string, bool) {
	t, ok := tables[entity]
	if !ok {
		return "", false
	}
	return t.resolve(from, action, role)
}

// ActionPermittedInState reports whether the action exists from the given
// state for any role. Used to separate role errors from state errors.
func ActionPermittedInState(entity EntityType, from string, action Action) bool {
	t, ok := tables[entity]
	if !ok {
		return false
	}
	return t.actionKnown(from, action)
}

// ActionYieldsState reports whether the given action+role could have
// produced the given state from any origin. Used to treat a repeated or
// lost-race action whose target is already in place as an idempotent no-op.
func ActionYieldsState(entity EntityType, action Action, role models.Role, state string) bool {
	t, ok := tables[entity]
	if !ok {
		return false
	}
	for key, edges := range t {
		if key.Action != action {
			continue
		}
		for _, e := range edges {
			if e.Role == role && e.To == state && key.From != state {
				return true
			}
		}
	}
	return false
}

// NextStates returns every state reachable from the given state for the
// given role. Serves UI hints; never authoritative.
func NextStates(entity EntityType, from string, role models.Role) []string {
	t, ok := tables[entity]
	if !ok {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for key, edges := range t {
		if key.From != from {
			continue
		}
		for _, e := range edges {
			if e.Role == role && !seen[e.To] {
				seen[e.To] = true
				out = append(out, e.To)
			}
		}
	}
	return out
}
