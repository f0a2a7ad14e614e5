package models

import (
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionUpdate     AuditAction = "UPDATE"
	AuditActionDelete     AuditAction = "DELETE"
	AuditActionDashboard  AuditAction = "DASHBOARD"
	AuditActionSection    AuditAction = "SECTION"
	AuditActionWidget     AuditAction = "WIDGET"
	AuditActionQuery      AuditAction = "QUERY"
	AuditActionInvitation AuditAction = "INVITATION"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

// ChangeSet collects field level changes for an audit entry.
type ChangeSet map[string]Change

// Track records field only when old and new differ.
func (c ChangeSet) Track(field string, old, new interface{}) ChangeSet {
	if !reflect.DeepEqual(old, new) {
		c[field] = Change{Old: old, New: new}
	}
	return c
}

func (c ChangeSet) Empty() bool { return len(c) == 0 }

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action    AuditAction        `bson:"action" json:"action"`
	Module    string             `bson:"module" json:"module"`       // dashboards, sections, widgets, ...
	RecordID  string             `bson:"record_id" json:"record_id"` // key or hex id of the changed record
	ActorID   string             `bson:"actor_id" json:"actor_id"`
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
