package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/dbow"
	"github.com/hupe1980/dbow/blobstore"
	"github.com/hupe1980/dbow/blobstore/resolver"
	"github.com/hupe1980/dbow/codec"
)

// Blob names inside an artifact location.
const (
	VocabularyBlob = "voc.dbow"
	DatabaseBlob   = "db.dbow"
	ManifestBlob   = "images.json"
)

// Manifest maps database entry ids to the images they were built from.
type Manifest struct {
	Images []string `json:"images"`
}

// Image returns the image of entry id, or a placeholder for unknown ids.
func (m *Manifest) Image(id uint32) string {
	if m == nil || int(id) >= len(m.Images) {
		return fmt.Sprintf("entry %d", id)
	}
	return m.Images[id]
}

// OpenStore opens the artifact location (a directory, s3://, minio:// or
// memory:// URL).
func OpenStore(ctx context.Context, location string) (blobstore.Store, error) {
	return resolver.FromURL(ctx, location)
}

// SaveManifest writes m next to the database.
func SaveManifest(ctx context.Context, store blobstore.Store, m *Manifest) error {
	data, err := codec.Default.Marshal(m)
	if err != nil {
		return err
	}
	return store.Put(ctx, ManifestBlob, data)
}

// LoadManifest reads the manifest of store. A missing manifest yields an
// empty one.
func LoadManifest(ctx context.Context, store blobstore.Store) (*Manifest, error) {
	data, err := store.Get(ctx, ManifestBlob)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return &Manifest{}, nil
		}
		return nil, err
	}
	var m Manifest
	if err := codec.Default.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ManifestBlob, err)
	}
	return &m, nil
}

// Train builds a vocabulary from the descriptors of every image.
func Train(ctx context.Context, env *Env, corpus [][]dbow.Descriptor) (*dbow.Vocabulary, error) {
	cfg, err := env.Config.VocabularyOptions()
	if err != nil {
		return nil, err
	}
	opts, err := env.Options()
	if err != nil {
		return nil, err
	}
	return dbow.Create(ctx, corpus, cfg, opts...)
}

// Index creates a database over voc and adds every image in order.
func Index(ctx context.Context, env *Env, voc *dbow.Vocabulary, images [][]dbow.Descriptor) (*dbow.Database, error) {
	opts, err := env.Options()
	if err != nil {
		return nil, err
	}
	db, err := dbow.NewDatabase(voc, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := db.AddBatch(ctx, images); err != nil {
		return nil, err
	}
	return db, nil
}
