package models

import "time"

// User is an account in the user store. The password hash never leaves the
// service; it is excluded from every JSON response.
type User struct {
	ID         int       `db:"id" json:"id"`
	Username   string    `db:"username" json:"username"`
	Email      string    `db:"email" json:"email"`
	Password   string    `db:"password" json:"-"`
	ProfilePic string    `db:"profile_pic" json:"profilePic"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// UserSummary is the slim view embedded in messages and group rosters.
type UserSummary struct {
	ID         int    `db:"id" json:"id"`
	Username   string `db:"username" json:"username"`
	ProfilePic string `db:"profile_pic" json:"profilePic"`
}
