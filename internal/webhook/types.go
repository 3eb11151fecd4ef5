package webhook

import (
	"time"

	"github.com/feral-file/nft-registry/internal/domain"
)

// Event type constants
const (
	// EventTypeTokenMinted is fired when a token is minted
	EventTypeTokenMinted = "token.minted"

	// EventTypeTokenTransferred is fired when a token changes owner
	EventTypeTokenTransferred = "token.transferred"

	// EventTypeTokenMetadataUpdated is fired when a token's metadata is replaced
	EventTypeTokenMetadataUpdated = "token.metadata.updated"

	// EventTypeTokenBurned is fired when a token is burned
	EventTypeTokenBurned = "token.burned"

	// EventTypeTokenApproved is fired when a transfer operator is granted or revoked
	EventTypeTokenApproved = "token.approved"

	// EventTypeTokenViewListUpdated is fired when a token's view list is replaced
	EventTypeTokenViewListUpdated = "token.view_list.updated"

	// EventTypeWildcard is a special filter that matches all event types
	EventTypeWildcard = "*"
)

// EventType maps a registry event kind to its webhook event type
func EventType(kind domain.EventKind) string {
	switch kind {
	case domain.EventKindMint:
		return EventTypeTokenMinted
	case domain.EventKindTransfer:
		return EventTypeTokenTransferred
	case domain.EventKindUpdateMetadata:
		return EventTypeTokenMetadataUpdated
	case domain.EventKindBurn:
		return EventTypeTokenBurned
	case domain.EventKindApprove:
		return EventTypeTokenApproved
	case domain.EventKindSetViewList:
		return EventTypeTokenViewListUpdated
	default:
		return "token." + string(kind)
	}
}

// WebhookEvent represents a webhook event to be delivered to clients
type WebhookEvent struct {
	// EventID is the registry event id (ULID for time-sortable uniqueness)
	EventID string `json:"event_id"`
	// EventType is the type of event (e.g., "token.minted")
	EventType string `json:"event_type"`
	// Timestamp is when the event was generated
	Timestamp time.Time `json:"timestamp"`
	// Data is the registry event
	Data *domain.Event `json:"data"`
}

// DeliveryResult represents the result of a webhook delivery attempt
type DeliveryResult struct {
	// Success indicates whether the delivery was successful
	Success bool
	// StatusCode is the HTTP status code returned by the webhook endpoint
	StatusCode int
	// Body is the response body (limited to 4KB)
	Body string
	// Error contains error details if delivery failed
	Error string
}
