package models

import "time"

type User struct {
	ID              string    `json:"id" db:"id"`
	Email           *string   `json:"email" db:"email"`
	FirstName       *string   `json:"firstName" db:"first_name"`
	LastName        *string   `json:"lastName" db:"last_name"`
	ProfileImageURL *string   `json:"profileImageUrl" db:"profile_image_url"`
	Username        *string   `json:"username" db:"username"`
	Bio             *string   `json:"bio" db:"bio"`
	Verified        bool      `json:"verified" db:"verified"`
	FollowersCount  int       `json:"followersCount" db:"followers_count"`
	FollowingCount  int       `json:"followingCount" db:"following_count"`
	PostsCount      int       `json:"postsCount" db:"posts_count"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// UpsertUser carries the profile fields synced from the identity provider.
// Nil fields are left untouched on update.
type UpsertUser struct {
	ID              string  `json:"id"`
	Email           *string `json:"email,omitempty"`
	FirstName       *string `json:"firstName,omitempty"`
	LastName        *string `json:"lastName,omitempty"`
	ProfileImageURL *string `json:"profileImageUrl,omitempty"`
	Username        *string `json:"username,omitempty"`
	Bio             *string `json:"bio,omitempty"`
}
