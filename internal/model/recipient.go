package model

// Role decides which report sections a recipient receives.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleStandard Role = "standard"
)

// Recipient is a report subscriber. Recipients are never deleted; unsubscribing clears Subscribed.
type Recipient struct {
	ID               string   `json:"id"`
	Username         string   `json:"username,omitempty"`
	Subscribed       bool     `json:"subscribed"`
	Symbols          []string `json:"symbols,omitempty"`
	Times            []string `json:"times,omitempty"`
	FrequencyMinutes int      `json:"frequency_minutes,omitempty"` // 0 means unset
	Email            string   `json:"email,omitempty"`
	WhatsApp         string   `json:"whatsapp,omitempty"`

	// Role is derived from the configured owner id on read and is not stored.
	Role Role `json:"-"`
}

// IsOwner reports whether r is the configured owner. Only the id decides.
func (r Recipient) IsOwner(ownerID string) bool {
	return ownerID != "" && r.ID == ownerID
}
