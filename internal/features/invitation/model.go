package invitation

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("invitation not found")

type Status string

const (
	StatusValid          Status = "valid"
	StatusExpired        Status = "expired"
	StatusRevoked        Status = "revoked"
	StatusMaxUsesReached Status = "max_uses_reached"
)

// Invitation is an opaque token granting read access to one dashboard.
// Its status is derived on every check and never stored.
type Invitation struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Token        string             `json:"token" bson:"token"`
	DashboardKey string             `json:"dashboard_key" bson:"dashboard_key"`
	Name         string             `json:"name,omitempty" bson:"name,omitempty"`
	ExpiresAt    *time.Time         `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	MaxUses      *int               `json:"max_uses,omitempty" bson:"max_uses,omitempty"`
	UsesCount    int                `json:"uses_count" bson:"uses_count"`
	Revoked      bool               `json:"revoked" bson:"revoked"`
	CreatedBy    string             `json:"created_by" bson:"created_by"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// Status resolves the invitation state at now. Revocation wins over expiry,
// expiry over use count.
func (i *Invitation) Status(now time.Time) Status {
	switch {
	case i.Revoked:
		return StatusRevoked
	case i.ExpiresAt != nil && !now.Before(*i.ExpiresAt):
		return StatusExpired
	case i.MaxUses != nil && i.UsesCount >= *i.MaxUses:
		return StatusMaxUsesReached
	default:
		return StatusValid
	}
}

// View is an invitation with its derived status, as returned by the API.
type View struct {
	Invitation
	Status Status `json:"status"`
}

// InvalidError reports why an invitation cannot be used.
type InvalidError struct {
	Status Status
}

func (e *InvalidError) Error() string {
	switch e.Status {
	case StatusExpired:
		return "invitation has expired"
	case StatusRevoked:
		return "invitation has been revoked"
	case StatusMaxUsesReached:
		return "invitation has reached its maximum number of uses"
	default:
		return "invitation is not valid"
	}
}

// UpdateRequest carries the mutable fields of an invitation.
type UpdateRequest struct {
	Name      *string    `json:"name"`
	ExpiresAt *time.Time `json:"expires_at"`
	MaxUses   *int       `json:"max_uses"`
	// ClearExpiry and ClearMaxUses remove the limit instead of leaving it as is.
	ClearExpiry  bool `json:"clear_expiry"`
	ClearMaxUses bool `json:"clear_max_uses"`
}
