package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pinkknives/skolapp-realtime/internal/model"
)

// QuizRepo handles MongoDB operations for quizzes
type QuizRepo interface {
	Create(ctx context.Context, quiz *model.Quiz) (string, error)
	GetByID(ctx context.Context, id string) (*model.Quiz, error)
	GetByTeacherID(ctx context.Context, teacherID string) ([]*model.Quiz, error)
	Update(ctx context.Context, quiz *model.Quiz) error
	Delete(ctx context.Context, id string) error
}

type quizRepo struct {
	collection *mongo.Collection
}

// NewQuizRepo creates a new quiz repository
func NewQuizRepo(db *mongo.Database) QuizRepo {
	return &quizRepo{
		collection: db.Collection("quizzes"),
	}
}

func (r *quizRepo) Create(ctx context.Context, quiz *model.Quiz) (string, error) {
	quiz.CreatedAt = time.Now()
	quiz.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, quiz)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	return oid.Hex(), nil
}

func (r *quizRepo) GetByID(ctx context.Context, id string) (*model.Quiz, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var quiz model.Quiz
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&quiz)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	quiz.ID = id
	return &quiz, nil
}

func (r *quizRepo) GetByTeacherID(ctx context.Context, teacherID string) ([]*model.Quiz, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"teacherId": teacherID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var quizzes []*model.Quiz
	if err := cursor.All(ctx, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *quizRepo) Update(ctx context.Context, quiz *model.Quiz) error {
	oid, err := primitive.ObjectIDFromHex(quiz.ID)
	if err != nil {
		return err
	}

	quiz.UpdatedAt = time.Now()
	_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, quiz)
	return err
}

func (r *quizRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
