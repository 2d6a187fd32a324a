package models

import "time"

// User is an account. UserName is the identity key; RollNo is informational.
// Password holds either a bcrypt hash or, for legacy records, plaintext.
type User struct {
	ID        string
	UserName  string
	Password  string
	Role      string
	RollNo    string
	CreatedAt time.Time
}
