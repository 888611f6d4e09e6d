package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleWriter Role = "writer"
)

// Permit says whether a writer may publish.
type Permit string

const (
	PermitAllowed    Permit = "Allowed"
	PermitRestricted Permit = "Restricted"
)

func (p Permit) Valid() bool { return p == PermitAllowed || p == PermitRestricted }

type Socials struct {
	Twitter   string `bson:"twitter" json:"twitter"`
	Facebook  string `bson:"facebook" json:"facebook"`
	LinkedIn  string `bson:"linkedin" json:"linkedin"`
	Instagram string `bson:"instagram" json:"instagram"`
}

// Profile is the public part of a writer account, edited from the dashboard.
type Profile struct {
	Description  string  `bson:"description" json:"description"`
	Designation  string  `bson:"designation" json:"designation"`
	ProfileImage string  `bson:"profileImage" json:"profileImage"`
	Socials      Socials `bson:"socials" json:"socials"`
}

// User is a dashboard account mapped from identity provider claims.
type User struct {
	ID        string     `bson:"_id,omitempty" json:"id"`
	Sub       string     `bson:"sub" json:"sub"` // OIDC subject
	Email     string     `bson:"email" json:"email"`
	FirstName string     `bson:"firstName" json:"firstName"`
	LastName  string     `bson:"lastName" json:"lastName"`
	Role      Role       `bson:"role" json:"role"`
	Permit    Permit     `bson:"permit" json:"permit"`
	LastLogin *time.Time `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`

	Profile `bson:",inline"`
}

func (u User) FullName() string { return strings.TrimSpace(u.FirstName + " " + u.LastName) }
