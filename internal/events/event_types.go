package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated          EventType = "ticket_created"
	EventTicketUpdated          EventType = "ticket_updated"
	EventTicketDeleted          EventType = "ticket_deleted"
	EventAssetChanged           EventType = "asset_changed"
	EventCompanyChanged         EventType = "company_changed"
	EventEmployeeCreated        EventType = "employee_created"
	EventEmployeeDeleted        EventType = "employee_deleted"
	EventAdminCreated           EventType = "admin_created"
	EventPasswordResetRequested EventType = "password_reset_requested"
)

// AllTypes lists every event type, in declaration order.
var AllTypes = []EventType{
	EventTicketCreated,
	EventTicketUpdated,
	EventTicketDeleted,
	EventAssetChanged,
	EventCompanyChanged,
	EventEmployeeCreated,
	EventEmployeeDeleted,
	EventAdminCreated,
	EventPasswordResetRequested,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UID     string `json:"uid,omitempty"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"is_admin"`
}

// Event represents a domain event emitted by services. Remote is set on
// events received from another instance through the relay.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CompanyID string      `json:"company_id,omitempty"`
	EntityID  string      `json:"entity_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
	Remote    bool        `json:"-"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	CategoryID   string `json:"category_id"`
	AssetTag     string `json:"asset_tag"`
	RaisedByName string `json:"raised_by_name"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	RaisedBy      string `json:"raised_by"`
	Title         string `json:"title"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
	StatusChanged bool   `json:"status_changed"`
	Comment       string `json:"comment,omitempty"`
}

// AssetAction names what happened to an asset.
type AssetAction string

const (
	AssetCreated    AssetAction = "created"
	AssetUpdated    AssetAction = "updated"
	AssetDeleted    AssetAction = "deleted"
	AssetUnassigned AssetAction = "unassigned"
)

// AssetChangedPayload payload.
type AssetChangedPayload struct {
	Action AssetAction `json:"action"`
	Tag    string      `json:"tag,omitempty"`
}

// AccountCreatedPayload carries the initial credentials for the welcome
// mail. The password never leaves the process.
type AccountCreatedPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// PasswordResetRequestedPayload payload. The token never leaves the process.
type PasswordResetRequestedPayload struct {
	Email     string    `json:"email"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
