package models

// User is the decrypted, in-memory representation of a user row.
// PasswordHash and PasswordSalt never leave the service layer; they are
// excluded from every serialized view.
type User struct {
	ID        int    `json:"id"`
	UserName  string `json:"userName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`

	PasswordHash string `json:"-"`
	PasswordSalt string `json:"-"`
}

// TruncatedUser is the public view of a user, safe to return to any caller.
type TruncatedUser struct {
	ID        int    `json:"id"`
	UserName  string `json:"userName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (u *User) Truncate() TruncatedUser {
	return TruncatedUser{
		ID:        u.ID,
		UserName:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}
