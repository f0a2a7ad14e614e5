package invitation

import (
	"context"
	"errors"
	"time"

	"go-dashboards/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	Get(ctx context.Context, id string) (*Invitation, error)
	GetByToken(ctx context.Context, token string) (*Invitation, error)
	Update(ctx context.Context, inv *Invitation) error
	Delete(ctx context.Context, id string) error
	ListByDashboard(ctx context.Context, dashboardKey string) ([]Invitation, error)
	// Consume atomically counts one use of a currently valid invitation.
	// It returns ErrNotFound when no valid invitation matches the token.
	Consume(ctx context.Context, token string, now time.Time) (*Invitation, error)
}

type InvitationRepositoryImpl struct {
	collection *mongo.Collection
}

func NewInvitationRepository(db *database.MongodbDB) InvitationRepository {
	return &InvitationRepositoryImpl{
		collection: db.DB.Collection("dashboard_invitations"),
	}
}

func (r *InvitationRepositoryImpl) Create(ctx context.Context, inv *Invitation) error {
	if inv.ID.IsZero() {
		inv.ID = primitive.NewObjectID()
	}
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt

	_, err := r.collection.InsertOne(ctx, inv)
	return err
}

func (r *InvitationRepositoryImpl) findOne(ctx context.Context, filter bson.M) (*Invitation, error) {
	var inv Invitation
	if err := r.collection.FindOne(ctx, filter).Decode(&inv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *InvitationRepositoryImpl) Get(ctx context.Context, id string) (*Invitation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *InvitationRepositoryImpl) GetByToken(ctx context.Context, token string) (*Invitation, error) {
	return r.findOne(ctx, bson.M{"token": token})
}

func (r *InvitationRepositoryImpl) Update(ctx context.Context, inv *Invitation) error {
	inv.UpdatedAt = time.Now()

	set := bson.M{
		"name":       inv.Name,
		"revoked":    inv.Revoked,
		"updated_at": inv.UpdatedAt,
	}
	unset := bson.M{}
	if inv.ExpiresAt != nil {
		set["expires_at"] = inv.ExpiresAt
	} else {
		unset["expires_at"] = ""
	}
	if inv.MaxUses != nil {
		set["max_uses"] = inv.MaxUses
	} else {
		unset["max_uses"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": inv.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InvitationRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InvitationRepositoryImpl) ListByDashboard(ctx context.Context, dashboardKey string) ([]Invitation, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"dashboard_key": dashboardKey}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	invitations := []Invitation{}
	if err := cursor.All(ctx, &invitations); err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *InvitationRepositoryImpl) Consume(ctx context.Context, token string, now time.Time) (*Invitation, error) {
	filter := bson.M{
		"token":   token,
		"revoked": false,
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"expires_at": nil},
				bson.M{"expires_at": bson.M{"$gt": now}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"max_uses": nil},
				bson.M{"$expr": bson.M{"$lt": bson.A{"$uses_count", "$max_uses"}}},
			}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"uses_count": 1},
		"$set": bson.M{"updated_at": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var inv Invitation
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&inv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// EnsureIndexes makes tokens unique and dashboard listings indexed.
func (r *InvitationRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "dashboard_key", Value: 1}}},
	})
	return err
}
