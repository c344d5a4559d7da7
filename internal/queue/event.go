// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names. All queues are durable; payloads are JSON.
const (
	TrackingQueue = "tracking.recorded"
	QueryQueue    = "query.opened"
	ContactQueue  = "contact.received"
)

// TrackingRecordedEvent fans one enriched interaction out to downstream
// consumers (analytics, audit) without another read of the primary
// database.
type TrackingRecordedEvent struct {
	EventID     uint64 `json:"event_id"`
	Type        string `json:"type"`
	TargetID    uint64 `json:"target_id,omitempty"`
	UserID      uint64 `json:"user_id,omitempty"`
	Country     string `json:"country,omitempty"`
	DeviceClass string `json:"device_class"`
	RecordedAt  string `json:"recorded_at"`
}

// QueryOpenedEvent is published once per thread, when the buyer/seller pair
// first meets. The mail sender consumes it for both participants'
// mailboxes.
type QueryOpenedEvent struct {
	ThreadID        uint64 `json:"thread_id"`
	RoomToken       string `json:"room_token"`
	BuyerUserID     uint64 `json:"buyer_user_id"`
	SellerCompanyID uint64 `json:"seller_company_id"`
	SellerUserID    uint64 `json:"seller_user_id"`
	OpenedAt        string `json:"opened_at"`
}

// ContactReceivedEvent is the inbound notice emitted after a contact
// message clears the throttle.
type ContactReceivedEvent struct {
	ContactID   uint64 `json:"contact_id"`
	Email       string `json:"email"`
	Country     string `json:"country,omitempty"`
	Subject     string `json:"subject,omitempty"`
	SubmittedAt string `json:"submitted_at"`
}
