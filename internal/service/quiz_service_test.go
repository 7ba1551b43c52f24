package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pinkknives/skolapp-realtime/internal/model"
)

// fakeQuizRepo is an in-memory QuizRepo for service tests.
type fakeQuizRepo struct {
	quizzes map[string]*model.Quiz
	nextID  int
}

func newFakeQuizRepo() *fakeQuizRepo {
	return &fakeQuizRepo{quizzes: make(map[string]*model.Quiz)}
}

func (r *fakeQuizRepo) Create(ctx context.Context, quiz *model.Quiz) (string, error) {
	r.nextID++
	id := fmt.Sprintf("quiz-%d", r.nextID)
	stored := *quiz
	stored.ID = id
	r.quizzes[id] = &stored
	return id, nil
}

func (r *fakeQuizRepo) GetByID(ctx context.Context, id string) (*model.Quiz, error) {
	quiz, ok := r.quizzes[id]
	if !ok {
		return nil, nil
	}
	copied := *quiz
	return &copied, nil
}

func (r *fakeQuizRepo) GetByTeacherID(ctx context.Context, teacherID string) ([]*model.Quiz, error) {
	var out []*model.Quiz
	for _, quiz := range r.quizzes {
		if quiz.TeacherID == teacherID {
			copied := *quiz
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeQuizRepo) Update(ctx context.Context, quiz *model.Quiz) error {
	if _, ok := r.quizzes[quiz.ID]; !ok {
		return errors.New("not found")
	}
	stored := *quiz
	r.quizzes[quiz.ID] = &stored
	return nil
}

func (r *fakeQuizRepo) Delete(ctx context.Context, id string) error {
	delete(r.quizzes, id)
	return nil
}

func seedQuiz(t *testing.T, svc *QuizService, teacherID string) *model.Quiz {
	t.Helper()
	quiz, err := svc.CreateQuiz(context.Background(), teacherID, "Geography", []model.Question{
		{ID: "q1", Title: "Capital of Sweden?", Type: model.QuestionTypeText},
	})
	if err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	return quiz
}

func TestQuizService_UpdateQuiz(t *testing.T) {
	repo := newFakeQuizRepo()
	svc := NewQuizService(repo)
	quiz := seedQuiz(t, svc, "t1")

	updated, err := svc.UpdateQuiz(context.Background(), quiz.ID, "t1", "Geography II", []model.Question{
		{ID: "q1", Title: "Capital of Sweden?", Type: model.QuestionTypeText},
		{ID: "q2", Title: "Capital of Norway?", Type: model.QuestionTypeText},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "Geography II" || len(updated.Questions) != 2 {
		t.Errorf("update not applied: %+v", updated)
	}

	stored, _ := repo.GetByID(context.Background(), quiz.ID)
	if stored.Title != "Geography II" {
		t.Errorf("stored title = %q, want Geography II", stored.Title)
	}
}

func TestQuizService_UpdateQuizOwnership(t *testing.T) {
	repo := newFakeQuizRepo()
	svc := NewQuizService(repo)
	quiz := seedQuiz(t, svc, "t1")

	_, err := svc.UpdateQuiz(context.Background(), quiz.ID, "t2", "Stolen", []model.Question{
		{ID: "q1", Title: "?"},
	})
	if !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("error = %v, want ErrQuizNotFound", err)
	}
}

func TestQuizService_UpdateQuizValidation(t *testing.T) {
	repo := newFakeQuizRepo()
	svc := NewQuizService(repo)
	quiz := seedQuiz(t, svc, "t1")

	_, err := svc.UpdateQuiz(context.Background(), quiz.ID, "t1", "", nil)
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestQuizService_DeleteQuiz(t *testing.T) {
	repo := newFakeQuizRepo()
	svc := NewQuizService(repo)
	quiz := seedQuiz(t, svc, "t1")

	if err := svc.DeleteQuiz(context.Background(), quiz.ID, "t1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetQuiz(context.Background(), quiz.ID, "t1"); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("quiz still retrievable after delete: %v", err)
	}

	if err := svc.DeleteQuiz(context.Background(), "missing", "t1"); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("error = %v, want ErrQuizNotFound", err)
	}
}
