// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// Role constants for user accounts. Roles are caller-supplied at
// registration, so values outside this set can exist in the store;
// these are the ones the platform assigns meaning to.
const (
	RoleDonor     = "donor"
	RoleAdmin     = "admin"
	RoleVolunteer = "volunteer"
)

// User status constants.
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)

// ValidUserStatuses contains all statuses an admin may assign.
var ValidUserStatuses = []string{UserStatusActive, UserStatusBlocked}

// IsValidUserStatus reports whether s is an assignable user status.
func IsValidUserStatus(s string) bool {
	return slices.Contains(ValidUserStatuses, s)
}

// User represents a registered account. Donors carry the search
// attributes (blood group, district, upazila); admins and volunteers
// may leave them empty.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	BloodGroup string    `json:"bloodGroup,omitempty"`
	District   string    `json:"district,omitempty"`
	Upazila    string    `json:"upazila,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
