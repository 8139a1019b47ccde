package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notetutor/internal/model"
	"notetutor/internal/study"
)

func newStudyFixture(generators *fakeGenerators) (*StudyService, *memoryDocs, *memoryArtifacts) {
	docs := newMemoryDocs()
	artifacts := newMemoryArtifacts()
	_ = docs.Create(&model.Document{UserID: 3, Title: "Cells", Content: "cells divide"})
	return NewStudyService(docs, artifacts, generators, nil), docs, artifacts
}

func sampleQuiz(n int) *study.Quiz {
	q := &study.Quiz{Title: "Quiz on Cells"}
	for i := 0; i < n; i++ {
		q.Questions = append(q.Questions, study.Question{Type: study.TypeTrueFalse, Question: "Q", Answer: "True"})
	}
	return q
}

func TestGenerateQuizPersistsArtifact(t *testing.T) {
	svc, _, artifacts := newStudyFixture(&fakeGenerators{quiz: sampleQuiz(8)})

	artifact, err := svc.GenerateQuiz(context.Background(), GenerateInput{UserID: 3, DocumentID: 1})
	require.NoError(t, err)

	assert.Equal(t, model.ArtifactQuiz, artifact.Kind)
	assert.Equal(t, "Quiz on Cells", artifact.Title)
	require.NotNil(t, artifact.SourceDocumentID)
	assert.Equal(t, uint(1), *artifact.SourceDocumentID)

	var stored study.Quiz
	require.NoError(t, json.Unmarshal(artifact.Body, &stored))
	assert.Len(t, stored.Questions, 8)
	assert.Len(t, artifacts.items, 1)
}

func TestGenerateQA(t *testing.T) {
	svc, _, _ := newStudyFixture(&fakeGenerators{qa: &study.QASet{Title: "Short Q&A", QA: []study.QAPair{{Question: "Q", Answer: "A"}}}})

	artifact, err := svc.GenerateQA(context.Background(), GenerateInput{UserID: 3, DocumentID: 1})
	require.NoError(t, err)
	assert.Equal(t, model.ArtifactQA, artifact.Kind)
}

func TestGenerateChecksIdentityFirst(t *testing.T) {
	gens := &fakeGenerators{quiz: sampleQuiz(1)}
	svc, _, _ := newStudyFixture(gens)

	_, err := svc.GenerateQuiz(context.Background(), GenerateInput{DocumentID: 1})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.GenerateQuiz(context.Background(), GenerateInput{UserID: 4, DocumentID: 1})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GenerateQA(context.Background(), GenerateInput{UserID: 3})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, gens.calls)
}

func TestGenerateMalformedOutputSavesNothing(t *testing.T) {
	svc, _, artifacts := newStudyFixture(&fakeGenerators{err: study.ErrMalformedGeneration})

	_, err := svc.GenerateQuiz(context.Background(), GenerateInput{UserID: 3, DocumentID: 1})
	assert.ErrorIs(t, err, study.ErrMalformedGeneration)
	assert.Empty(t, artifacts.items)
}

func TestArtifactLifecycle(t *testing.T) {
	svc, _, _ := newStudyFixture(&fakeGenerators{quiz: sampleQuiz(4)})
	ctx := context.Background()

	first, err := svc.GenerateQuiz(ctx, GenerateInput{UserID: 3, DocumentID: 1})
	require.NoError(t, err)
	second, err := svc.GenerateQuiz(ctx, GenerateInput{UserID: 3, DocumentID: 1})
	require.NoError(t, err)

	list, err := svc.ListArtifacts(3, model.ArtifactQuiz)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	scored, err := svc.SaveQuizScore(3, first.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, *scored.Score)

	_, err = svc.SaveQuizScore(3, first.ID, 5)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SaveQuizScore(4, first.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetArtifact(3, first.ID, model.ArtifactQA)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.DeleteArtifact(3, first.ID, model.ArtifactQuiz))
	assert.ErrorIs(t, svc.DeleteArtifact(3, first.ID, model.ArtifactQuiz), ErrNotFound)
}
