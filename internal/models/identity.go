package models

// CustomerIdentity is who is checking out. Exactly one of UserID or GuestID is
// expected; SessionID scopes session-only receipt slots.
type CustomerIdentity struct {
	UserID    string `json:"userId,omitempty"`
	GuestID   string `json:"guestId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// OwnerID is the stable key for durable per-customer storage.
func (c CustomerIdentity) OwnerID() string {
	if c.UserID != "" {
		return "user:" + c.UserID
	}
	if c.GuestID != "" {
		return "guest:" + c.GuestID
	}
	return ""
}

// IsGuest reports whether the customer is not signed in.
func (c CustomerIdentity) IsGuest() bool {
	return c.UserID == "" && c.GuestID != ""
}
