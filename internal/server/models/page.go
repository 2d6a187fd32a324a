package models

import "time"

// Page is a subject folder. Name is unique and is the lookup key that File
// records point at.
type Page struct {
	ID        string
	Name      string
	Semester  int
	CreatedAt time.Time
}
