package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"devfestsched/model"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "archive.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func collection(titles ...string) model.Collection {
	sessions := []model.Session{}
	for _, title := range titles {
		sessions = append(sessions, model.Session{Title: title, Time: "9:00 AM", Day: "day1"})
	}
	return model.Collection{"day1": sessions}
}

func TestSaveAndLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 11, 16, 8, 0, 0, 0, time.UTC)

	_, err := s.Save(ctx, "lagos", base, collection("Keynote"))
	require.NoError(t, err)
	id, err := s.Save(ctx, "lagos", base.Add(time.Hour), collection("Keynote", "Lunch"))
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	latest, err := s.Latest(ctx, "lagos")
	require.NoError(t, err)
	assert.Equal(t, id, latest.ID)
	assert.Equal(t, 2, latest.Sessions)
	assert.True(t, base.Add(time.Hour).Equal(latest.FetchedAt))
	if diff := cmp.Diff(collection("Keynote", "Lunch"), latest.Schedule); diff != "" {
		t.Errorf("schedule mismatch (-want +got):\n%s", diff)
	}
}

func TestLatestWithoutSnapshots(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Save(context.Background(), "lagos", time.Now(), collection("Keynote"))
	require.NoError(t, err)

	_, err = s.Latest(context.Background(), "nairobi")
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 11, 16, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		_, err := s.Save(ctx, "nairobi", base.Add(time.Duration(i)*time.Hour), collection(make([]string, i)...))
		require.NoError(t, err)
	}

	all, err := s.List(ctx, "nairobi", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, snap := range all {
		assert.Equal(t, 3-i, snap.Sessions)
		assert.Equal(t, "nairobi", snap.Event)
	}

	two, err := s.List(ctx, "nairobi", 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
	assert.Equal(t, all[0].ID, two[0].ID)
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.sqlite")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Save(context.Background(), "lagos", time.Now(), collection("Keynote"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	latest, err := s.Latest(context.Background(), "lagos")
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Sessions)
}
