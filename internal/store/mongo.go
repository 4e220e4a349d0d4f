// Package store is the MongoDB persistence layer. It implements the engine's
// Store interface and the wider queries the route layer needs (lookups by
// email, admin listings, counts).
package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/buildhive/buildhive-backend/internal/engine"
	"github.com/buildhive/buildhive-backend/internal/models"
)

const (
	usersCollection        = "users"
	projectsCollection     = "projects"
	stripeEventsCollection = "stripe_events"
)

type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) users() *mongo.Collection    { return s.db.Collection(usersCollection) }
func (s *Store) projects() *mongo.Collection { return s.db.Collection(projectsCollection) }

// EnsureIndexes configures the indexes both collections rely on. Called on
// startup from main after Mongo has connected.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	userModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_email_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "verification_token", Value: 1}},
			Options: options.Index().SetName("idx_verification_token").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "stripe_customer_id", Value: 1}},
			Options: options.Index().SetName("idx_stripe_customer").SetSparse(true),
		},
	}
	if _, err := s.users().Indexes().CreateMany(ctx, userModels); err != nil {
		return err
	}

	projectModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_owner_created"),
		},
		{
			Keys:    bson.D{{Key: "assigned_developer", Value: 1}},
			Options: options.Index().SetName("idx_assigned_developer").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_status"),
		},
	}
	if _, err := s.projects().Indexes().CreateMany(ctx, projectModels); err != nil {
		return err
	}
	return nil
}

// --- Users ---

func (s *Store) InsertUser(ctx context.Context, u *models.User) error {
	res, err := s.users().InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return engine.ErrConflict
		}
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = id
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) UserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"verification_token": token})
}

func (s *Store) UserByStripeCustomer(ctx context.Context, customerID string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"stripe_customer_id": customerID})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.users().FindOne(ctx, filter).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) UpdateUserFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// MarkUserVerified flips the verification flag and removes the one-time token.
func (s *Store) MarkUserVerified(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"is_verified": true, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"verification_token": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	cur, err := s.users().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) CountUsers(ctx context.Context, role models.Role) (int64, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	return s.users().CountDocuments(ctx, filter)
}

// --- Projects ---

func (s *Store) InsertProject(ctx context.Context, p *models.Project) error {
	res, err := s.projects().InsertOne(ctx, p)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = id
	}
	return nil
}

func (s *Store) ProjectByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.projects().FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProjectFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) error {
	res, err := s.projects().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// TransitionProject applies field updates and the status-update thread entry
// in one document update, so a status change and its log line land together
// or not at all.
func (s *Store) TransitionProject(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}, entry models.CommunicationEntry) error {
	res, err := s.projects().UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":  fields,
		"$push": bson.M{"communication": entry},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func (s *Store) AppendCommunication(ctx context.Context, id primitive.ObjectID, entry models.CommunicationEntry) error {
	res, err := s.projects().UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"communication": entry},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// MarkEntryRead appends a read receipt only when the user has none on that
// entry yet; the filter makes the operation idempotent under concurrency.
func (s *Store) MarkEntryRead(ctx context.Context, projectID, entryID primitive.ObjectID, receipt models.ReadReceipt) error {
	filter := bson.M{
		"_id": projectID,
		"communication": bson.M{"$elemMatch": bson.M{
			"_id":          entryID,
			"read_by.user": bson.M{"$ne": receipt.User},
		}},
	}
	_, err := s.projects().UpdateOne(ctx, filter, bson.M{
		"$push": bson.M{"communication.$.read_by": receipt},
	})
	// MatchedCount 0 means the receipt already exists; that is fine.
	return err
}

// CreditProjectBudget adds the amount to budget.actual and appends the
// milestone entry in the same document update. The $inc keeps concurrent
// credits from losing each other.
func (s *Store) CreditProjectBudget(ctx context.Context, id primitive.ObjectID, amount float64, entry models.CommunicationEntry) error {
	res, err := s.projects().UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc":  bson.M{"budget.actual": amount},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
		"$push": bson.M{"communication": entry},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// MarkPaymentEventProcessed records a webhook event id, leaning on _id
// uniqueness of the events collection as the dedup guard.
func (s *Store) MarkPaymentEventProcessed(ctx context.Context, eventID string) error {
	_, err := s.db.Collection(stripeEventsCollection).InsertOne(ctx, bson.M{
		"_id":        eventID,
		"created_at": time.Now().UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return engine.ErrConflict
	}
	return err
}

func (s *Store) DeleteProject(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.projects().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// ProjectsForUser returns projects the user owns or is assigned to,
// newest first.
func (s *Store) ProjectsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	filter := bson.M{"$or": []bson.M{
		{"owner": userID},
		{"assigned_developer": userID},
	}}
	return s.findProjects(ctx, filter)
}

// ListProjects is the admin view across all owners, optionally filtered by
// status.
func (s *Store) ListProjects(ctx context.Context, status models.ProjectStatus) ([]models.Project, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.findProjects(ctx, filter)
}

func (s *Store) findProjects(ctx context.Context, filter bson.M) ([]models.Project, error) {
	cur, err := s.projects().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	projects := []models.Project{}
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *Store) CountProjects(ctx context.Context, status models.ProjectStatus) (int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.projects().CountDocuments(ctx, filter)
}
