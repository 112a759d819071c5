package models

// User is the account record kept per uid. Handle is the slug of Username
// and is unique across accounts.
type User struct {
	UID      string `gorm:"primaryKey" json:"uid"`
	Username string `gorm:"not null" json:"username"`
	Handle   string `gorm:"uniqueIndex;not null" json:"handle"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`

	Wins   int64 `gorm:"not null;default:0" json:"wins"`
	Losses int64 `gorm:"not null;default:0" json:"losses"`

	Timestamps
}
