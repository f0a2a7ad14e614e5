package audit

import (
	"time"

	common_models "go-dashboards/internal/common/models"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ListQuery selects audit entries. Zero fields do not filter.
type ListQuery struct {
	Module   string
	RecordID string
	ActorID  string
	Action   common_models.AuditAction
	Since    time.Time
	Until    time.Time
	Page     int64
	Limit    int64
}

func (q ListQuery) normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return q
}

func (q ListQuery) filter() bson.M {
	f := bson.M{}
	if q.Module != "" {
		f["module"] = q.Module
	}
	if q.RecordID != "" {
		f["record_id"] = q.RecordID
	}
	if q.ActorID != "" {
		f["actor_id"] = q.ActorID
	}
	if q.Action != "" {
		f["action"] = q.Action
	}
	if !q.Since.IsZero() || !q.Until.IsZero() {
		ts := bson.M{}
		if !q.Since.IsZero() {
			ts["$gte"] = q.Since
		}
		if !q.Until.IsZero() {
			ts["$lt"] = q.Until
		}
		f["timestamp"] = ts
	}
	return f
}
