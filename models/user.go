package models

import "time"

// User represents a board member. Passwords are stored as bcrypt hashes only.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	EmailAddress  string    `gorm:"column:email_address;size:255;uniqueIndex;not null" json:"email_address"`
	Username      string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	FirstName     string    `gorm:"size:64" json:"first_name"`
	LastName      string    `gorm:"size:64" json:"last_name"`
	Password      string    `gorm:"column:password;size:255;not null" json:"-"`
	EmailVerified bool      `gorm:"not null;default:false" json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// PublicUser is the only user shape that leaves the service.
// Querying through Model(&User{}) into it selects just these columns.
type PublicUser struct {
	ID            uint      `json:"id"`
	EmailAddress  string    `gorm:"column:email_address" json:"email_address"`
	Username      string    `json:"username"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Public projects u onto the fields clients may see.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		EmailAddress:  u.EmailAddress,
		Username:      u.Username,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}
