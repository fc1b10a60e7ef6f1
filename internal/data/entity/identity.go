package entity

import "fmt"

// Track groups roles that share a login surface and a uniqueness scope for contacts.
type Track string

const (
	TrackAdmin    Track = "admin"
	TrackGymOwner Track = "gym_owner"
	TrackUser     Track = "user"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
	RoleModerator  Role = "moderator"
	RoleGymOwner   Role = "gym_owner"
	RoleUser       Role = "user"
)

// AdminRoles are the sub-roles accepted on admin routes.
var AdminRoles = []Role{RoleAdmin, RoleSuperAdmin, RoleModerator}

func (r Role) Track() Track {
	switch r {
	case RoleAdmin, RoleSuperAdmin, RoleModerator:
		return TrackAdmin
	case RoleGymOwner:
		return TrackGymOwner
	case RoleUser:
		return TrackUser
	}
	return ""
}

func (r Role) Valid() bool {
	return r.Track() != ""
}

var publicIDPrefix = map[Track]string{
	TrackAdmin:    "RTA",
	TrackGymOwner: "RT",
	TrackUser:     "RTU",
}

// PublicIDFor derives the human-readable id from the database id, e.g. RT-07.
func PublicIDFor(track Track, id int64) string {
	return fmt.Sprintf("%s-%02d", publicIDPrefix[track], id)
}

// Identity is the profile half of a credential-bearing record. Credential
// lifecycle fields live in Credentials and are written through a separate repository.
type Identity struct {
	Base
	PublicID   string  `db:"public_id"`
	Track      Track   `db:"track"`
	Role       Role    `db:"role"`
	Name       string  `db:"name"`
	Email      *string `db:"email"`
	Phone      *string `db:"phone"`
	AdminID    *int64  `db:"admin_id"`
	GymOwnerID *int64  `db:"gym_owner_id"`
	Active     bool    `db:"active"`
}

// Contact returns the email when present, otherwise the phone.
func (i *Identity) Contact() string {
	if i.Email != nil && *i.Email != "" {
		return *i.Email
	}
	if i.Phone != nil {
		return *i.Phone
	}
	return ""
}
