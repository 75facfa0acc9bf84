package user

import "time"

// Profile is an account as exposed to handlers and the admin report.
// The password hash lives in the persistence layer only.
type Profile struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	UsageType string    `json:"usage_type,omitempty"`
	Guest     bool      `json:"guest,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName resolves the name shown in the chat header, falling back to
// the email handle when the profile carries no name.
func (p Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	case p.Email != "":
		for i, r := range p.Email {
			if r == '@' {
				return p.Email[:i]
			}
		}
		return p.Email
	default:
		return "Traveler"
	}
}
