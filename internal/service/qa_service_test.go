package service

import (
	"testing"

	"interviewiq-go/internal/model"
	"interviewiq-go/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQAService_AskAndMaintain(t *testing.T) {
	svc := NewQAService(repository.NewQARepository(newTestDB(t)))
	admin := &model.User{ID: 1, Role: model.RoleAdmin}

	answer, err := svc.Ask("What is a closure?")
	require.NoError(t, err)
	assert.False(t, answer.Found)
	assert.Equal(t, UnknownAnswer, answer.Answer)

	pair, err := svc.Create("What is a closure?", "A function bundled with its environment.", admin)
	require.NoError(t, err)
	assert.Equal(t, uint(1), pair.CreatedBy)

	answer, err = svc.Ask("  what is a closure?  ")
	require.NoError(t, err)
	assert.True(t, answer.Found)
	assert.Equal(t, "A function bundled with its environment.", answer.Answer)

	updated, err := svc.Update(pair.ID, "", "A function value that references outer variables.")
	require.NoError(t, err)
	assert.Equal(t, "What is a closure?", updated.Question)
	assert.Equal(t, "A function value that references outer variables.", updated.Answer)

	pairs, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, pairs, 1)

	require.NoError(t, svc.Delete(pair.ID))
	assert.ErrorIs(t, svc.Delete(pair.ID), ErrQANotFound)

	_, err = svc.Update(pair.ID, "q", "a")
	assert.ErrorIs(t, err, ErrQANotFound)
}

func TestQAService_EmptyQuestion(t *testing.T) {
	svc := NewQAService(repository.NewQARepository(newTestDB(t)))

	_, err := svc.Ask("   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	_, err = svc.Create("", "answer", nil)
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	pairs, err := svc.List()
	require.NoError(t, err)
	assert.NotNil(t, pairs)
	assert.Empty(t, pairs)
}
