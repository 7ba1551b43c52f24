package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pinkknives/skolapp-realtime/internal/model"
	"github.com/pinkknives/skolapp-realtime/internal/repository"
)

var ErrQuizNotFound = errors.New("quiz not found")

// QuizService handles quiz template CRUD
type QuizService struct {
	quizRepo repository.QuizRepo
}

// NewQuizService creates a new quiz service
func NewQuizService(quizRepo repository.QuizRepo) *QuizService {
	return &QuizService{quizRepo: quizRepo}
}

// CreateQuiz validates and stores a new quiz for a teacher
func (s *QuizService) CreateQuiz(ctx context.Context, teacherID, title string, questions []model.Question) (*model.Quiz, error) {
	if err := validateQuiz(title, questions); err != nil {
		return nil, err
	}

	quiz := &model.Quiz{
		TeacherID: teacherID,
		Title:     title,
		Questions: questions,
	}

	id, err := s.quizRepo.Create(ctx, quiz)
	if err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}
	quiz.ID = id
	return quiz, nil
}

// GetQuiz retrieves a quiz owned by the teacher
func (s *QuizService) GetQuiz(ctx context.Context, id, teacherID string) (*model.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil || quiz.TeacherID != teacherID {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

// ListQuizzes returns the teacher's quizzes
func (s *QuizService) ListQuizzes(ctx context.Context, teacherID string) ([]*model.Quiz, error) {
	quizzes, err := s.quizRepo.GetByTeacherID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, nil
}

// UpdateQuiz replaces the title and questions of a quiz owned by the teacher.
// Running sessions keep the question set they started with.
func (s *QuizService) UpdateQuiz(ctx context.Context, id, teacherID, title string, questions []model.Question) (*model.Quiz, error) {
	if err := validateQuiz(title, questions); err != nil {
		return nil, err
	}

	quiz, err := s.GetQuiz(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}

	quiz.Title = title
	quiz.Questions = questions
	if err := s.quizRepo.Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}
	return quiz, nil
}

// DeleteQuiz removes a quiz owned by the teacher.
func (s *QuizService) DeleteQuiz(ctx context.Context, id, teacherID string) error {
	if _, err := s.GetQuiz(ctx, id, teacherID); err != nil {
		return err
	}
	if err := s.quizRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	return nil
}

func validateQuiz(title string, questions []model.Question) error {
	if title == "" {
		return fmt.Errorf("%w: quiz title is required", model.ErrValidation)
	}
	if len(questions) == 0 {
		return fmt.Errorf("%w: quiz needs at least one question", model.ErrValidation)
	}
	seen := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		if q.ID == "" || q.Title == "" {
			return fmt.Errorf("%w: every question needs an id and a title", model.ErrValidation)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", model.ErrValidation, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}
