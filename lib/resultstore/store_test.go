package resultstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"uaftools-backend/lib/transcript"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func testStore(t *testing.T) Store {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db)
	require.NoError(t, err)
	return store
}

func records(codes ...string) []transcript.CourseRecord {
	out := make([]transcript.CourseRecord, len(codes))
	for i, code := range codes {
		out[i] = transcript.CourseRecord{
			RegistrationNo: "2020-ag-1234",
			CourseCode:     code,
			Grade:          "B",
		}
	}
	return out
}

func TestSaveAndList(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	earlier := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	later := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

	id1, err := store.Save(ctx, "2020-ag-1234", records("CS-301"), earlier)
	require.NoError(t, err)
	id2, err := store.Save(ctx, "2020-ag-1234", records("CS-301", "MATH-101"), later)
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	results, err := store.List(ctx, "2020-ag-1234")
	require.NoError(t, err)
	require.Len(t, results, 2)
	// newest first
	require.Equal(t, id2, results[0].ID)
	require.Len(t, results[0].Records, 2)
	require.Equal(t, later, results[0].Timestamp)
	require.Equal(t, id1, results[1].ID)
}

func TestSaveSameTimestampOverwrites(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	at := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

	id1, err := store.Save(ctx, "2020-ag-1234", records("CS-301"), at)
	require.NoError(t, err)
	id2, err := store.Save(ctx, "2020-ag-1234", records("CS-301", "MATH-101"), at)
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	results, err := store.List(ctx, "2020-ag-1234")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Records, 2)
}

func TestListUnknownRegistration(t *testing.T) {
	store := testStore(t)

	results, err := store.List(context.Background(), "2020-ag-9999")
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestDelete(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, "2020-ag-1234", records("CS-301"), time.Now().UTC().Truncate(time.Second))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))

	results, err := store.List(ctx, "2020-ag-1234")
	require.NoError(t, err)
	require.Empty(t, results)

	// deleting an unknown id is not an error
	require.NoError(t, store.Delete(ctx, "nope"))
}
