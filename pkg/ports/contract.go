package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/courselet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract verifies that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	key := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		blob := []byte(`{"version":1,"frames":[{"spec":"browse","node":"START"}]}`)

		err := store.Save(ctx, key, blob)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, blob, loaded)
	})

	t.Run("Save overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, []byte("first")))
		require.NoError(t, store.Save(ctx, key, []byte("second")))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", string(loaded))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, []byte("x")))

		err := store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		_ = store.Save(ctx, id1, []byte("a"))
		_ = store.Save(ctx, id2, []byte("b"))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunLiveRepositoryContract verifies that a LiveRepository implementation
// adheres to the defined interface contract.
func RunLiveRepositoryContract(t *testing.T, repo LiveRepository) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405.000000")
	started := time.Now().UTC().Truncate(time.Millisecond)

	sess := &domain.LiveSession{
		ID:           "contract-session-" + suffix,
		UnitID:       "unit-1",
		InstructorID: "instr-1",
		StartedAt:    started,
	}

	t.Run("Session lifecycle", func(t *testing.T) {
		require.NoError(t, repo.CreateSession(ctx, sess))

		loaded, err := repo.Session(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.UnitID, loaded.UnitID)
		assert.Equal(t, sess.InstructorID, loaded.InstructorID)
		assert.False(t, loaded.Ended())

		ended := started.Add(time.Minute)
		loaded.EndedAt = &ended
		loaded.CurrentQuestionID = "q-1"
		require.NoError(t, repo.UpdateSession(ctx, loaded))

		again, err := repo.Session(ctx, sess.ID)
		require.NoError(t, err)
		assert.True(t, again.Ended())
		assert.Equal(t, "q-1", again.CurrentQuestionID)
	})

	t.Run("Session Not Found", func(t *testing.T) {
		_, err := repo.Session(ctx, "missing-"+suffix)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Active users", func(t *testing.T) {
		require.NoError(t, repo.Join(ctx, sess.ID, "alice"))
		require.NoError(t, repo.Join(ctx, sess.ID, "alice"))
		require.NoError(t, repo.Join(ctx, sess.ID, "bob"))

		loaded, err := repo.Session(ctx, sess.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice", "bob"}, loaded.ActiveUsers)

		require.NoError(t, repo.Leave(ctx, sess.ID, "alice"))
		require.NoError(t, repo.Leave(ctx, sess.ID, "alice"))

		loaded, err = repo.Session(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, loaded.ActiveUsers)
	})

	q := &domain.LiveQuestion{
		ID:             "contract-question-" + suffix,
		SessionID:      sess.ID,
		Title:          "What is a force?",
		Stage:          domain.StageStart,
		StageStartedAt: started,
		CreatedAt:      started,
	}

	t.Run("Question lifecycle", func(t *testing.T) {
		require.NoError(t, repo.CreateQuestion(ctx, q))

		loaded, err := repo.Question(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StageStart, loaded.Stage)
		assert.Equal(t, q.Title, loaded.Title)

		loaded.Stage = domain.StageResponse
		loaded.StageStartedAt = started.Add(time.Second)
		require.NoError(t, repo.UpdateQuestion(ctx, loaded))

		again, err := repo.Question(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StageResponse, again.Stage)
		assert.True(t, again.StageStartedAt.Equal(started.Add(time.Second)))
	})

	t.Run("Responses", func(t *testing.T) {
		_, err := repo.Response(ctx, q.ID, "alice")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		r := &domain.Response{
			QuestionID:  q.ID,
			UserID:      "alice",
			Text:        "mass times acceleration",
			Confidence:  domain.ConfidenceSure,
			SubmittedAt: started,
		}
		require.NoError(t, repo.SaveResponse(ctx, r))

		r.SelfEval = domain.SelfEvalCorrect
		r.Status = domain.StatusDone
		require.NoError(t, repo.SaveResponse(ctx, r))

		loaded, err := repo.Response(ctx, q.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, domain.SelfEvalCorrect, loaded.SelfEval)
		assert.Equal(t, domain.StatusDone, loaded.Status)

		require.NoError(t, repo.SaveResponse(ctx, &domain.Response{
			QuestionID: q.ID, UserID: "bob", Text: "?", Confidence: domain.ConfidenceGuess, SubmittedAt: started,
		}))
		all, err := repo.Responses(ctx, q.ID)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}
