package workflow

import (
	"fmt"

	"github.com/craftlink-lk/craftlink-api/models"
)

// InvalidTransitionError is returned when the transition table has no edge
// for (current state, actor role, action).
type InvalidTransitionError struct {
	Entity       EntityType
	EntityID     uint
	CurrentState string
	Action       Action
	Role         models.Role
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s %d in state %q does not permit action %q for role %q",
		e.Entity, e.EntityID, e.CurrentState, e.Action, e.Role)
}

// Code returns the API error code for this error
func (e *InvalidTransitionError) Code() string { return "INVALID_TRANSITION" }

// ActorNotAuthorizedError is returned when the actor is not a permitted
// party for the entity, regardless of what the transition table says.
type ActorNotAuthorizedError struct {
	Entity   EntityType
	EntityID uint
	ActorID  uint
	Role     models.Role
	Action   Action
}

func (e *ActorNotAuthorizedError) Error() string {
	return fmt.Sprintf("actor %d (%s) is not authorized to perform %q on %s %d",
		e.ActorID, e.Role, e.Action, e.Entity, e.EntityID)
}

// Code returns the API error code for this error
func (e *ActorNotAuthorizedError) Code() string { return "ACTOR_NOT_AUTHORIZED" }

// EntityNotFoundError is returned when the target entity does not exist
type EntityNotFoundError struct {
	Entity   EntityType
	EntityID uint
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.EntityID)
}

// Code returns the API error code for this error
func (e *EntityNotFoundError) Code() string { return "ENTITY_NOT_FOUND" }

// ConcurrentModificationError is returned when the optimistic version check
// fails. The engine retries once with fresh state before surfacing it.
type ConcurrentModificationError struct {
	Entity   EntityType
	EntityID uint
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s %d was modified concurrently, retry with fresh state", e.Entity, e.EntityID)
}

// Code returns the API error code for this error
func (e *ConcurrentModificationError) Code() string { return "CONCURRENT_MODIFICATION" }

// ConversationClosedError is returned when appending to a resolved or
// archived conversation without admin override.
type ConversationClosedError struct {
	ConversationID uint
	Status         models.ConversationStatus
}

func (e *ConversationClosedError) Error() string {
	return fmt.Sprintf("conversation %d is %s and no longer accepts messages", e.ConversationID, e.Status)
}

// Code returns the API error code for this error
func (e *ConversationClosedError) Code() string { return "CONVERSATION_CLOSED" }

// AttemptLimitExceededError is returned when filing a return attempt beyond
// the configured maximum.
type AttemptLimitExceededError struct {
	OrderID     *uint
	BookingID   *uint
	MaxAttempts int
}

func (e *AttemptLimitExceededError) Error() string {
	return fmt.Sprintf("return attempt limit of %d exceeded", e.MaxAttempts)
}

// Code returns the API error code for this error
func (e *AttemptLimitExceededError) Code() string { return "ATTEMPT_LIMIT_EXCEEDED" }

// DuplicateActiveResourceError is returned when an invariant permits at most
// one active resource (e.g. one active boost per item) and a second exists.
type DuplicateActiveResourceError struct {
	Resource string
	Detail   string
}

func (e *DuplicateActiveResourceError) Error() string {
	return fmt.Sprintf("duplicate active %s: %s", e.Resource, e.Detail)
}

// Code returns the API error code for this error
func (e *DuplicateActiveResourceError) Code() string { return "DUPLICATE_ACTIVE_RESOURCE" }

// CodedError is implemented by every workflow error so the API layer can map
// errors to response envelope codes without type-switching.
type CodedError interface {
	error
	Code() string
}
