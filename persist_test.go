package dbow_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dbow"
	"github.com/hupe1980/dbow/blobstore"
	"github.com/hupe1980/dbow/bow"
	"github.com/hupe1980/dbow/internal/fs"
	"github.com/hupe1980/dbow/persistence"
)

var compressions = []persistence.Compression{
	persistence.CompressionNone,
	persistence.CompressionLZ4,
	persistence.CompressionZSTD,
	persistence.CompressionGzip,
}

func TestVocabulary_RoundTrip(t *testing.T) {
	for _, c := range compressions {
		t.Run(c.String(), func(t *testing.T) {
			voc, corpus := newVocabulary(t, k9l3Config(), dbow.WithCompression(c))

			var buf bytes.Buffer
			require.NoError(t, voc.Save(&buf))

			loaded, err := dbow.LoadVocabulary(&buf)
			require.NoError(t, err)

			assert.Equal(t, voc.String(), loaded.String())
			assert.Equal(t, voc.NodeCount(), loaded.NodeCount())
			for w := 0; w < voc.Size(); w++ {
				assert.Equal(t, voc.WordWeight(bow.WordID(w)), loaded.WordWeight(bow.WordID(w)))
				assert.Equal(t, voc.Word(bow.WordID(w)), loaded.Word(bow.WordID(w)))
			}
			for _, doc := range corpus {
				want, err := voc.Transform(doc)
				require.NoError(t, err)
				got, err := loaded.Transform(doc)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestVocabulary_MarshalIsStable(t *testing.T) {
	voc, _ := newVocabulary(t, k9l3Config())

	data, err := voc.MarshalBinary()
	require.NoError(t, err)

	var loaded dbow.Vocabulary
	require.NoError(t, loaded.UnmarshalBinary(data))
	again, err := loaded.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestVocabulary_SaveFile(t *testing.T) {
	voc, corpus := newVocabulary(t, k9l3Config())
	path := filepath.Join(t.TempDir(), "nested", "voc.dbow")

	require.NoError(t, voc.SaveFile(path))
	loaded, err := dbow.LoadVocabularyFile(path)
	require.NoError(t, err)

	want, err := voc.Transform(corpus[0])
	require.NoError(t, err)
	got, err := loaded.Transform(corpus[0])
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVocabulary_LoadMissingFile(t *testing.T) {
	_, err := dbow.LoadVocabularyFile(filepath.Join(t.TempDir(), "missing.dbow"))
	assert.ErrorIs(t, err, dbow.ErrIO)
}

func TestVocabulary_SaveFileFaults(t *testing.T) {
	tests := []struct {
		name  string
		fault fs.Fault
	}{
		{name: "open", fault: fs.Fault{FailOnOpen: true, FailAfterBytes: -1}},
		{name: "write", fault: fs.Fault{FailAfterBytes: 10}},
		{name: "sync", fault: fs.Fault{FailOnSync: true, FailAfterBytes: -1}},
		{name: "rename", fault: fs.Fault{FailOnRename: true, FailAfterBytes: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faulty := fs.NewFaultyFS(nil)
			faulty.AddRule("voc.dbow", tt.fault)
			voc, _ := newVocabulary(t, k9l3Config(), dbow.WithFileSystem(faulty))

			err := voc.SaveFile(filepath.Join(t.TempDir(), "voc.dbow"))
			assert.ErrorIs(t, err, dbow.ErrIO)
			assert.ErrorIs(t, err, fs.ErrInjected)
		})
	}
}

func TestVocabulary_LoadCorruptKeepsState(t *testing.T) {
	voc, corpus := newVocabulary(t, k9l3Config())
	data := mustMarshal(t, voc)
	before, err := voc.Transform(corpus[0])
	require.NoError(t, err)

	tests := []struct {
		name    string
		corrupt func([]byte) []byte
	}{
		{name: "magic", corrupt: func(b []byte) []byte { b[0] ^= 0xff; return b }},
		{name: "version", corrupt: func(b []byte) []byte { b[4] = 99; return b }},
		{name: "truncated", corrupt: func(b []byte) []byte { return b[:len(b)/2] }},
		{name: "payload bit", corrupt: func(b []byte) []byte { b[len(b)-1] ^= 0x01; return b }},
		{name: "empty", corrupt: func([]byte) []byte { return nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := tt.corrupt(bytes.Clone(data))

			err := voc.Load(bytes.NewReader(bad))
			assert.ErrorIs(t, err, dbow.ErrDeserialization)

			after, err := voc.Transform(corpus[0])
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Equal(t, data, mustMarshal(t, voc))
		})
	}
}

func TestVocabulary_LoadRejectsDatabaseFile(t *testing.T) {
	db, _ := newDatabase(t, k9l3Config())
	data, err := db.MarshalBinary()
	require.NoError(t, err)

	_, err = dbow.LoadVocabulary(bytes.NewReader(data))
	assert.ErrorIs(t, err, dbow.ErrDeserialization)
}

func TestVocabulary_StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	voc, _ := newVocabulary(t, k9l3Config())

	require.NoError(t, voc.SaveTo(ctx, store, "models/voc.dbow"))
	loaded, err := dbow.LoadVocabularyFrom(ctx, store, "models/voc.dbow")
	require.NoError(t, err)
	assert.Equal(t, voc.String(), loaded.String())

	_, err = dbow.LoadVocabularyFrom(ctx, store, "models/missing.dbow")
	assert.ErrorIs(t, err, dbow.ErrIO)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestDatabase_RoundTrip(t *testing.T) {
	for _, c := range compressions {
		t.Run(c.String(), func(t *testing.T) {
			db, corpus := newDatabase(t, k9l3Config(), dbow.WithDirectIndex(2), dbow.WithCompression(c))

			var buf bytes.Buffer
			require.NoError(t, db.Save(&buf))
			loaded, err := dbow.LoadDatabase(&buf)
			require.NoError(t, err)

			assert.Equal(t, db.String(), loaded.String())
			assert.Equal(t, db.Size(), loaded.Size())
			assert.True(t, loaded.UsingDirectIndex())
			assert.Equal(t, 2, loaded.DirectIndexLevels())
			for id := 0; id < db.Size(); id++ {
				want, err := db.BowVector(bow.DocID(id))
				require.NoError(t, err)
				got, err := loaded.BowVector(bow.DocID(id))
				require.NoError(t, err)
				assert.Equal(t, want, got)

				wantFV, err := db.FeatureVector(bow.DocID(id))
				require.NoError(t, err)
				gotFV, err := loaded.FeatureVector(bow.DocID(id))
				require.NoError(t, err)
				assert.True(t, wantFV.Equal(gotFV))
			}
			for _, doc := range corpus {
				want, err := db.Query(doc, 4)
				require.NoError(t, err)
				got, err := loaded.Query(doc, 4)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestDatabase_SaveFileAndAddAfterLoad(t *testing.T) {
	db, corpus := newDatabase(t, k9l3Config())
	path := filepath.Join(t.TempDir(), "db.dbow")
	require.NoError(t, db.SaveFile(path))

	loaded, err := dbow.LoadDatabaseFile(path)
	require.NoError(t, err)
	assert.False(t, loaded.UsingDirectIndex())

	id, err := loaded.Add(corpus[0])
	require.NoError(t, err)
	assert.Equal(t, bow.DocID(len(corpus)), id)

	res, err := loaded.Query(corpus[0], 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.ElementsMatch(t, []bow.DocID{0, id}, []bow.DocID{res[0].ID, res[1].ID})
}

func TestDatabase_LoadCorruptKeepsState(t *testing.T) {
	db, corpus := newDatabase(t, k9l3Config())
	data, err := db.MarshalBinary()
	require.NoError(t, err)
	before, err := db.Query(corpus[1], 5)
	require.NoError(t, err)

	bad := bytes.Clone(data)
	bad[1] ^= 0xff
	err = db.Load(bytes.NewReader(bad))
	assert.ErrorIs(t, err, dbow.ErrDeserialization)

	err = db.UnmarshalBinary(data[:len(data)-3])
	assert.ErrorIs(t, err, dbow.ErrDeserialization)

	assert.Equal(t, len(corpus), db.Size())
	after, err := db.Query(corpus[1], 5)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDatabase_LoadReplacesContent(t *testing.T) {
	small, corpus := newDatabase(t, k9l3Config())
	small.Clear()
	_, err := small.Add(corpus[0])
	require.NoError(t, err)
	data, err := small.MarshalBinary()
	require.NoError(t, err)

	db, _ := newDatabase(t, k9l3Config(), dbow.WithDirectIndex(1))
	require.NoError(t, db.UnmarshalBinary(data))

	assert.Equal(t, 1, db.Size())
	assert.False(t, db.UsingDirectIndex())
}

func TestDatabase_LoadRejectsVocabularyFile(t *testing.T) {
	voc, _ := newVocabulary(t, k9l3Config())

	_, err := dbow.LoadDatabase(bytes.NewReader(mustMarshal(t, voc)))
	assert.ErrorIs(t, err, dbow.ErrDeserialization)
}

func TestDatabase_StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewLocalStore(t.TempDir())
	db, corpus := newDatabase(t, k9l3Config())

	require.NoError(t, db.SaveTo(ctx, store, "db.dbow"))
	loaded, err := dbow.LoadDatabaseFrom(ctx, store, "db.dbow")
	require.NoError(t, err)

	want, err := db.Query(corpus[5], 3)
	require.NoError(t, err)
	got, err := loaded.Query(corpus[5], 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDatabase_SaveFileFault(t *testing.T) {
	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule("db.dbow", fs.Fault{FailOnClose: true, FailAfterBytes: -1})
	db, _ := newDatabase(t, k9l3Config(), dbow.WithFileSystem(faulty))

	err := db.SaveFile(filepath.Join(t.TempDir(), "db.dbow"))
	assert.ErrorIs(t, err, dbow.ErrIO)
	assert.True(t, errors.Is(err, fs.ErrInjected))
}

func TestDatabase_MarshalZeroValue(t *testing.T) {
	var db dbow.Database
	_, err := db.MarshalBinary()
	assert.ErrorIs(t, err, dbow.ErrInvalidInput)
	assert.Equal(t, 0, db.Size())
}

func mustMarshal(t *testing.T, v interface{ MarshalBinary() ([]byte, error) }) []byte {
	t.Helper()
	data, err := v.MarshalBinary()
	require.NoError(t, err)
	return data
}
