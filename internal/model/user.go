package model

// Role constants for portal accounts.
const (
	RoleCandidate = "candidate"
	RoleRecruiter = "recruiter"
)

// User is the authenticated portal account.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`

	// ProfileComplete reports whether the candidate has finished their
	// profile; some portal actions are gated on it.
	ProfileComplete bool `json:"profile_complete"`
}
