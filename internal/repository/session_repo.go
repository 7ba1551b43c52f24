package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pinkknives/skolapp-realtime/internal/model"
)

// SessionRepo handles MongoDB operations for session audit records. The
// session id is generated by the service (not an ObjectID) so the same id
// can name the channel group, the cache keys and the record.
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	GetByTeacherID(ctx context.Context, teacherID string) ([]*model.Session, error)
	End(ctx context.Context, id string, endedAt time.Time, results map[string]int) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("sessions"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) GetByTeacherID(ctx context.Context, teacherID string) ([]*model.Session, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"teacherId": teacherID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) End(ctx context.Context, id string, endedAt time.Time, results map[string]int) error {
	update := bson.M{"$set": bson.M{
		"status":  model.SessionEnded,
		"endedAt": endedAt,
		"results": results,
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
