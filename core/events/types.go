package events

import (
	"github.com/luminaworld/lumina-go-node/core/types"
)

// Event type names
const (
	TypeAuditEvent              = "lumina/AuditEvent"
	TypeBridgeOutInitiatedEvent = "lumina/BridgeOutInitiatedEvent"
	TypeBridgeInConfirmedEvent  = "lumina/BridgeInConfirmedEvent"
	TypeBridgeOutConfirmedEvent = "lumina/BridgeOutConfirmedEvent"
	TypeBridgeOutFailedEvent    = "lumina/BridgeOutFailedEvent"
)

// Event is anything recorded into the append-only event log
type Event interface {
	Type() string
}

// Events is a slice of events committed at one height
type Events []Event

// AuditEvent records an administrative state change with its before and
// after values
type AuditEvent struct {
	Setting string        `json:"setting"`
	Old     string        `json:"old"`
	New     string        `json:"new"`
	Admin   types.Address `json:"admin"`
}

// Type returns event type string
func (e *AuditEvent) Type() string { return TypeAuditEvent }

// BridgeOutInitiatedEvent is emitted when an outbound bridge transfer locks
// funds; the external submitter relays it to the sibling chain
type BridgeOutInitiatedEvent struct {
	TransferID string        `json:"transfer_id"`
	NativeFrom types.Address `json:"native_from"`
	ExternalTo string        `json:"external_to"`
	Amount     string        `json:"amount"`
	Fee        string        `json:"fee"`
}

// Type returns event type string
func (e *BridgeOutInitiatedEvent) Type() string { return TypeBridgeOutInitiatedEvent }

// BridgeInConfirmedEvent is emitted when an inbound transfer credits the
// native recipient
type BridgeInConfirmedEvent struct {
	TransferID     string        `json:"transfer_id"`
	ExternalTxHash string        `json:"external_tx_hash"`
	NativeTo       types.Address `json:"native_to"`
	Amount         string        `json:"amount"`
}

// Type returns event type string
func (e *BridgeInConfirmedEvent) Type() string { return TypeBridgeInConfirmedEvent }

// BridgeOutConfirmedEvent is emitted when the sibling chain reports the
// outbound leg as released
type BridgeOutConfirmedEvent struct {
	TransferID     string `json:"transfer_id"`
	ExternalTxHash string `json:"external_tx_hash"`
}

// Type returns event type string
func (e *BridgeOutConfirmedEvent) Type() string { return TypeBridgeOutConfirmedEvent }

// BridgeOutFailedEvent is emitted when the external leg fails and the
// original debit is refunded
type BridgeOutFailedEvent struct {
	TransferID string        `json:"transfer_id"`
	NativeFrom types.Address `json:"native_from"`
	Refunded   string        `json:"refunded"`
}

// Type returns event type string
func (e *BridgeOutFailedEvent) Type() string { return TypeBridgeOutFailedEvent }
