package model

import (
	"database/sql"
	"time"
)

// Tracking event types. Exactly one of CATEGORY/COMPANY/PRODUCT applies when
// a target id is present; everything else is recorded as OTHER.
const (
	TrackCategory = "CATEGORY"
	TrackCompany  = "COMPANY"
	TrackProduct  = "PRODUCT"
	TrackOther    = "OTHER"
)

// Device classes produced by the user-agent dispatch.
const (
	DeviceBot         = "BOT"
	DeviceEmailClient = "EMAIL_CLIENT"
	DeviceMobile      = "MOBILE"
	DevicePC          = "PC"
	DeviceTablet      = "TABLET"
	DeviceTouch       = "TOUCH"
	DeviceUnknown     = "UNKNOWN"
)

// TrackingEvent mirrors the append-only 'tracking_events' table, indexed by
// (type, target_id, date desc). Rows are owned by the platform and never
// deleted by users.
type TrackingEvent struct {
	ID             uint64            // tracking_events.id (monotonic)
	Date           time.Time         // tracking_events.date
	Type           string            // tracking_events.type
	TargetID       sql.NullInt64     // tracking_events.target_id
	UserID         sql.NullInt64     // tracking_events.user_id
	IP             string            // tracking_events.ip
	Country        string            // tracking_events.country
	Region         string            // tracking_events.region
	City           string            // tracking_events.city
	Postal         string            // tracking_events.postal
	Lat            sql.NullFloat64   // tracking_events.lat
	Lng            sql.NullFloat64   // tracking_events.lng
	Referrer       string            // tracking_events.referrer
	DeviceClass    string            // tracking_events.device_class
	Device         string            // tracking_events.device
	Browser        string            // tracking_events.browser
	BrowserVersion string            // tracking_events.browser_version
	OS             string            // tracking_events.os
	OSVersion      string            // tracking_events.os_version
	Params         map[string]string // tracking_events.params (JSON column)
}
