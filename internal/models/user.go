package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
)

type UserProfile struct {
	Bio    string   `json:"bio" bson:"bio"`
	Avatar string   `json:"avatar" bson:"avatar"`
	Skills []string `json:"skills" bson:"skills"`
}

// User is never hard-deleted; deactivation clears IsActive and keeps every
// reference from courses, enrollments and submissions valid.
type User struct {
	UserID     string      `json:"userId" bson:"userId"`
	Email      string      `json:"email" bson:"email"`
	FirstName  string      `json:"firstName" bson:"firstName"`
	LastName   string      `json:"lastName" bson:"lastName"`
	Role       UserRole    `json:"role" bson:"role"`
	DateJoined time.Time   `json:"dateJoined" bson:"dateJoined"`
	Profile    UserProfile `json:"profile" bson:"profile"`
	IsActive   bool        `json:"isActive" bson:"isActive"`
}

func (User) CollectionName() string { return CollectionUsers }

// FullName joins first and last name the way reports display them.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
