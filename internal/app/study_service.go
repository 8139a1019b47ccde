package app

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"notetutor/internal/model"
	"notetutor/internal/study"
)

// StudyService generates and keeps quizzes and Q&A sets.
type StudyService struct {
	docs       DocumentStore
	artifacts  ArtifactStore
	generators Generators
	logger     *zap.Logger
}

type GenerateInput struct {
	UserID     uint
	DocumentID uint
}

func NewStudyService(docs DocumentStore, artifacts ArtifactStore, generators Generators, logger *zap.Logger) *StudyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudyService{docs: docs, artifacts: artifacts, generators: generators, logger: logger}
}

func (s *StudyService) GenerateQuiz(ctx context.Context, input GenerateInput) (*model.Artifact, error) {
	doc, err := s.sourceDocument(input)
	if err != nil {
		return nil, err
	}
	quiz, err := s.generators.Quiz(ctx, doc.Title, doc.Content)
	if err != nil {
		return nil, generationFailure(err)
	}
	return s.save(doc, model.ArtifactQuiz, quiz.Title, quiz)
}

func (s *StudyService) GenerateQA(ctx context.Context, input GenerateInput) (*model.Artifact, error) {
	doc, err := s.sourceDocument(input)
	if err != nil {
		return nil, err
	}
	set, err := s.generators.QA(ctx, doc.Title, doc.Content)
	if err != nil {
		return nil, generationFailure(err)
	}
	return s.save(doc, model.ArtifactQA, set.Title, set)
}

func (s *StudyService) sourceDocument(input GenerateInput) (*model.Document, error) {
	if input.UserID == 0 {
		return nil, ErrUnauthorized
	}
	if input.DocumentID == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docs.GetByIDAndUserID(input.DocumentID, input.UserID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *StudyService) save(doc *model.Document, kind model.ArtifactKind, title string, body any) (*model.Artifact, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s failed: %w", kind, err)
	}
	sourceID := doc.ID
	artifact := &model.Artifact{
		UserID:           doc.UserID,
		SourceDocumentID: &sourceID,
		Kind:             kind,
		Title:            title,
		Body:             payload,
	}
	if err := s.artifacts.Create(artifact); err != nil {
		return nil, err
	}
	s.logger.Info("artifact saved",
		zap.Uint("artifact_id", artifact.ID),
		zap.String("kind", string(kind)),
		zap.Uint("document_id", doc.ID),
	)
	return artifact, nil
}

func (s *StudyService) ListArtifacts(userID uint, kind model.ArtifactKind) ([]model.Artifact, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	return s.artifacts.ListByUserIDAndKind(userID, kind)
}

func (s *StudyService) GetArtifact(userID, id uint, kind model.ArtifactKind) (*model.Artifact, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	artifact, err := s.artifacts.GetByIDAndUserID(id, userID, kind)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, ErrNotFound
	}
	return artifact, nil
}

func (s *StudyService) DeleteArtifact(userID, id uint, kind model.ArtifactKind) error {
	if userID == 0 {
		return ErrUnauthorized
	}
	deleted, err := s.artifacts.DeleteByIDAndUserID(id, userID, kind)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// SaveQuizScore records how many questions the student got right.
func (s *StudyService) SaveQuizScore(userID, id uint, score int) (*model.Artifact, error) {
	artifact, err := s.GetArtifact(userID, id, model.ArtifactQuiz)
	if err != nil {
		return nil, err
	}
	var quiz study.Quiz
	if err := json.Unmarshal(artifact.Body, &quiz); err != nil {
		return nil, fmt.Errorf("decode stored quiz failed: %w", err)
	}
	if score < 0 || score > len(quiz.Questions) {
		return nil, ErrInvalidInput
	}
	if err := s.artifacts.SetScore(id, userID, score); err != nil {
		return nil, err
	}
	artifact.Score = &score
	return artifact, nil
}
