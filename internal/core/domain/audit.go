package domain

import "time"

// AuthEventType names the auth operations recorded in the audit trail.
type AuthEventType string

const (
	EventLogin    AuthEventType = "login"
	EventRegister AuthEventType = "register"
	EventLogout   AuthEventType = "logout"
	EventRefresh  AuthEventType = "refresh"
)

// AuthEvent is one entry of the auth audit trail.
type AuthEvent struct {
	Type    AuthEventType `json:"type"              bson:"type"`
	UserID  string        `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Email   string        `json:"email,omitempty"   bson:"email,omitempty"`
	Success bool          `json:"success"           bson:"success"`
	Reason  string        `json:"reason,omitempty"  bson:"reason,omitempty"`
	At      time.Time     `json:"at"                bson:"at"`
}
