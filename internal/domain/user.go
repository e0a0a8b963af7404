package domain

// Identity is the authenticated caller as reported by the session service.
type Identity struct {
	UserID  int32
	IsAdmin bool
}

// UserContact is the slice of a user record the notification relay needs.
type UserContact struct {
	ID    int32  `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
}
