package dbow

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/dbow/blobstore"
	"github.com/hupe1980/dbow/bow"
	"github.com/hupe1980/dbow/distance"
	"github.com/hupe1980/dbow/persistence"
)

// encodeVocabulary writes the vocabulary section of a payload:
// parameters, then the node table in id order without the root.
func encodeVocabulary(e *persistence.Encoder, v *Vocabulary) {
	e.Uvarint(uint64(v.k))
	e.Uvarint(uint64(v.levels))
	e.Uint8(uint8(v.weighting))
	e.Uint8(uint8(v.scoring))
	e.Uint8(uint8(v.metric))
	e.Uvarint(uint64(v.dim))
	e.Uvarint(uint64(len(v.nodes)))
	for i := 1; i < len(v.nodes); i++ {
		n := &v.nodes[i]
		e.Uvarint(uint64(n.parent))
		e.Bool(n.leaf)
		if n.leaf {
			e.Uvarint(uint64(n.word))
			e.Float64(n.weight)
		}
		e.Float32s(n.descriptor)
	}
}

// decodeVocabulary reads what encodeVocabulary wrote and checks the tree
// invariants: parents precede children, every leaf sits at depth L, word
// ids are dense and unique.
func decodeVocabulary(d *persistence.Decoder) (*Vocabulary, error) {
	k := d.Uvarint()
	levels := d.Uvarint()
	weighting := bow.Weighting(d.Uint8())
	scoring := bow.Scoring(d.Uint8())
	metric := distance.Metric(d.Uint8())
	dim := d.Uvarint()
	if err := d.Err(); err != nil {
		return nil, err
	}
	if !weighting.Valid() || !scoring.Valid() || !metric.Valid() {
		return nil, fmt.Errorf("unknown weighting, scoring or metric (%d, %d, %d)", weighting, scoring, metric)
	}
	if k > math.MaxInt32 || levels > math.MaxInt32 || dim > math.MaxInt32 {
		return nil, fmt.Errorf("implausible parameters k=%d L=%d dim=%d", k, levels, dim)
	}
	distFunc, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}

	v := &Vocabulary{
		k:         int(k),
		levels:    int(levels),
		weighting: weighting,
		scoring:   scoring,
		metric:    metric,
		dim:       int(dim),
		distFunc:  distFunc,
	}

	nodeCount := d.Uvarint()
	if err := d.Err(); err != nil {
		return nil, err
	}
	// Each non-root node takes at least parent, leaf flag and descriptor bytes.
	if nodeCount > 0 && nodeCount-1 > uint64(d.Remaining()/(2+4*int(dim))) {
		return nil, fmt.Errorf("node count %d exceeds remaining data", nodeCount)
	}
	count := int(nodeCount)
	if count == 0 {
		v.dim = 0
		return v, nil
	}
	if err := (VocabularyConfig{BranchingFactor: v.k, DepthLevels: v.levels, Weighting: weighting, Scoring: scoring, Metric: metric}).Validate(); err != nil {
		return nil, err
	}
	if dim == 0 {
		return nil, fmt.Errorf("non-empty vocabulary with zero descriptor length")
	}

	v.nodes = make([]node, count)
	depth := make([]int, count)
	var leaves int
	for i := 1; i < count; i++ {
		parent := d.Uvarint()
		leaf := d.Bool()
		n := node{parent: bow.NodeID(parent), leaf: leaf}
		if leaf {
			n.word = bow.WordID(d.Uvarint())
			n.weight = d.Float64()
		}
		n.descriptor = Descriptor(d.Float32s(int(dim)))
		if err := d.Err(); err != nil {
			return nil, err
		}

		if parent >= uint64(i) {
			return nil, fmt.Errorf("node %d: parent %d does not precede it", i, parent)
		}
		p := &v.nodes[parent]
		if p.leaf {
			return nil, fmt.Errorf("node %d: parent %d is a leaf", i, parent)
		}
		if len(p.children) >= v.k {
			return nil, fmt.Errorf("node %d: parent %d has more than %d children", i, parent, v.k)
		}
		p.children = append(p.children, bow.NodeID(i))
		depth[i] = depth[parent] + 1
		if leaf != (depth[i] == v.levels) {
			return nil, fmt.Errorf("node %d: leaf flag %t at depth %d of %d", i, leaf, depth[i], v.levels)
		}
		if leaf {
			if math.IsNaN(n.weight) || math.IsInf(n.weight, 0) || n.weight < 0 {
				return nil, fmt.Errorf("word %d: invalid weight %v", n.word, n.weight)
			}
			leaves++
		}
		v.nodes[i] = n
	}
	if len(v.nodes[rootNode].children) == 0 {
		return nil, fmt.Errorf("root has no children")
	}

	v.words = make([]bow.NodeID, leaves)
	seen := make([]bool, leaves)
	for i := 1; i < count; i++ {
		n := &v.nodes[i]
		if !n.leaf {
			if len(n.children) == 0 {
				return nil, fmt.Errorf("inner node %d has no children", i)
			}
			continue
		}
		if int(n.word) >= leaves || seen[n.word] {
			return nil, fmt.Errorf("node %d: word id %d is duplicate or out of range", i, n.word)
		}
		seen[n.word] = true
		v.words[n.word] = bow.NodeID(i)
	}
	return v, nil
}

func (v *Vocabulary) payload() []byte {
	e := persistence.NewEncoder(64 + len(v.nodes)*(12+4*v.dim))
	encodeVocabulary(e, v)
	return e.Data()
}

// MarshalBinary returns the complete file image of the vocabulary.
func (v *Vocabulary) MarshalBinary() ([]byte, error) {
	return persistence.Seal(persistence.KindVocabulary, v.opts.withDefaults().compression, v.payload())
}

// UnmarshalBinary replaces v with the vocabulary in data. On error v is
// left unchanged.
func (v *Vocabulary) UnmarshalBinary(data []byte) error {
	_, payload, err := persistence.Open(data, persistence.KindVocabulary)
	if err != nil {
		return deserializationError(err)
	}
	d := persistence.NewDecoder(payload)
	nv, err := decodeVocabulary(d)
	if err == nil {
		err = d.Finish()
	}
	if err != nil {
		return deserializationError(err)
	}
	nv.opts = v.opts
	*v = *nv
	return nil
}

// Save writes the vocabulary to w.
func (v *Vocabulary) Save(w io.Writer) error {
	return v.save(context.Background(), "writer", func(data []byte) error {
		_, err := w.Write(data)
		return err
	})
}

// SaveFile writes the vocabulary to path atomically.
func (v *Vocabulary) SaveFile(path string) error {
	return v.save(context.Background(), path, func(data []byte) error {
		return persistence.WriteFileAtomic(v.opts.withDefaults().fileSystem, path, data)
	})
}

// SaveTo writes the vocabulary to store under name.
func (v *Vocabulary) SaveTo(ctx context.Context, store blobstore.Store, name string) error {
	return v.save(ctx, name, func(data []byte) error {
		return store.Put(ctx, name, data)
	})
}

func (v *Vocabulary) save(ctx context.Context, target string, write func([]byte) error) error {
	data, err := v.MarshalBinary()
	if err == nil {
		err = ioError(write(data))
	}
	v.opts.withDefaults().logger.LogSave(ctx, "vocabulary", target, len(data), err)
	return err
}

// Load replaces v with the vocabulary read from r. On error v is left
// unchanged.
func (v *Vocabulary) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return ioError(err)
	}
	return v.UnmarshalBinary(data)
}

// LoadVocabulary reads a vocabulary from r.
func LoadVocabulary(r io.Reader, opts ...Option) (*Vocabulary, error) {
	v := &Vocabulary{opts: applyOptions(opts)}
	data, err := io.ReadAll(r)
	return v.finishLoad(context.Background(), "reader", data, err)
}

// LoadVocabularyFile reads a vocabulary from path.
func LoadVocabularyFile(path string, opts ...Option) (*Vocabulary, error) {
	v := &Vocabulary{opts: applyOptions(opts)}
	data, err := persistence.ReadFile(v.opts.fileSystem, path)
	return v.finishLoad(context.Background(), path, data, err)
}

// LoadVocabularyFrom reads a vocabulary from store.
func LoadVocabularyFrom(ctx context.Context, store blobstore.Store, name string, opts ...Option) (*Vocabulary, error) {
	v := &Vocabulary{opts: applyOptions(opts)}
	data, err := store.Get(ctx, name)
	return v.finishLoad(ctx, name, data, err)
}

func (v *Vocabulary) finishLoad(ctx context.Context, source string, data []byte, err error) (*Vocabulary, error) {
	if err != nil {
		err = ioError(err)
	} else {
		err = v.UnmarshalBinary(data)
	}
	v.opts.logger.LogLoad(ctx, "vocabulary", source, err)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// encodeDatabase writes the full database payload: the vocabulary section,
// the direct index settings and every document.
func encodeDatabase(e *persistence.Encoder, st *dbState) {
	encodeVocabulary(e, st.voc)
	e.Bool(st.directIndex)
	e.Uvarint(uint64(st.directLevels))
	e.Uvarint(uint64(len(st.docs)))
	for _, doc := range st.docs {
		e.Uvarint(uint64(len(doc.bow)))
		for _, entry := range doc.bow {
			e.Uvarint(uint64(entry.Word))
			e.Float64(entry.Weight)
		}
		e.Bool(doc.features != nil)
		if doc.features != nil {
			nodes := doc.features.Nodes()
			e.Uvarint(uint64(len(nodes)))
			for _, n := range nodes {
				e.Uvarint(uint64(n))
				e.Uint32s(doc.features[n])
			}
		}
	}
}

// decodeDatabase reads what encodeDatabase wrote into a new, unshared
// database state.
func decodeDatabase(d *persistence.Decoder) (*dbState, error) {
	voc, err := decodeVocabulary(d)
	if err != nil {
		return nil, err
	}
	if voc.Empty() {
		return nil, fmt.Errorf("database without vocabulary")
	}

	st := &dbState{voc: voc}
	st.directIndex = d.Bool()
	levels := d.Uvarint()
	numDocs := d.Len(2)
	if err := d.Err(); err != nil {
		return nil, err
	}
	if levels > uint64(voc.levels) {
		return nil, fmt.Errorf("direct index level %d exceeds depth %d", levels, voc.levels)
	}
	st.directLevels = int(levels)

	st.docs = make([]document, 0, numDocs)
	for i := 0; i < numDocs; i++ {
		n := d.Len(9)
		bv := make(bow.BowVector, n)
		for j := range bv {
			bv[j].Word = bow.WordID(d.Uvarint())
			bv[j].Weight = d.Float64()
		}
		hasFeatures := d.Bool()
		if err := d.Err(); err != nil {
			return nil, err
		}
		if err := bv.Validate(); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if n > 0 && !voc.isWord(bv[n-1].Word) {
			return nil, fmt.Errorf("document %d: word %d outside vocabulary of %d words", i, bv[n-1].Word, voc.Size())
		}
		if hasFeatures != st.directIndex {
			return nil, fmt.Errorf("document %d: direct index data present=%t, database direct index=%t", i, hasFeatures, st.directIndex)
		}

		doc := document{bow: bv}
		if hasFeatures {
			doc.features = make(bow.FeatureVector)
			nodes := d.Len(2)
			for j := 0; j < nodes; j++ {
				id := d.Uvarint()
				idx := d.Uint32s()
				if err := d.Err(); err != nil {
					return nil, err
				}
				if id >= uint64(len(voc.nodes)) {
					return nil, fmt.Errorf("document %d: node %d outside vocabulary", i, id)
				}
				doc.features[bow.NodeID(id)] = idx
			}
		}
		st.docs = append(st.docs, doc)
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	st.rebuildIndex()
	return st, nil
}

// MarshalBinary returns the complete file image of the database, including
// its vocabulary.
func (db *Database) MarshalBinary() ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.marshal()
}

func (db *Database) marshal() ([]byte, error) {
	if db.voc == nil {
		return nil, invalidInputf("database has no vocabulary")
	}
	e := persistence.NewEncoder(4096)
	encodeDatabase(e, &db.dbState)
	return persistence.Seal(persistence.KindDatabase, db.opts.withDefaults().compression, e.Data())
}

// UnmarshalBinary replaces the database content with the one in data. On
// error the database is left unchanged.
func (db *Database) UnmarshalBinary(data []byte) error {
	st, err := unmarshalDatabase(data)
	if err != nil {
		return err
	}
	st.voc.opts = db.opts
	db.mu.Lock()
	db.dbState = *st
	db.mu.Unlock()
	return nil
}

func unmarshalDatabase(data []byte) (*dbState, error) {
	_, payload, err := persistence.Open(data, persistence.KindDatabase)
	if err != nil {
		return nil, deserializationError(err)
	}
	st, err := decodeDatabase(persistence.NewDecoder(payload))
	if err != nil {
		return nil, deserializationError(err)
	}
	return st, nil
}

// Save writes the database to w.
func (db *Database) Save(w io.Writer) error {
	return db.save(context.Background(), "writer", func(data []byte) error {
		_, err := w.Write(data)
		return err
	})
}

// SaveFile writes the database to path atomically.
func (db *Database) SaveFile(path string) error {
	return db.save(context.Background(), path, func(data []byte) error {
		return persistence.WriteFileAtomic(db.opts.withDefaults().fileSystem, path, data)
	})
}

// SaveTo writes the database to store under name.
func (db *Database) SaveTo(ctx context.Context, store blobstore.Store, name string) error {
	return db.save(ctx, name, func(data []byte) error {
		return store.Put(ctx, name, data)
	})
}

func (db *Database) save(ctx context.Context, target string, write func([]byte) error) error {
	data, err := db.MarshalBinary()
	if err == nil {
		err = ioError(write(data))
	}
	db.opts.withDefaults().logger.LogSave(ctx, "database", target, len(data), err)
	return err
}

// Load replaces the database content with the one read from r. On error
// the database is left unchanged.
func (db *Database) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return ioError(err)
	}
	return db.UnmarshalBinary(data)
}

// LoadDatabase reads a database from r.
func LoadDatabase(r io.Reader, opts ...Option) (*Database, error) {
	db := &Database{opts: applyOptions(opts)}
	data, err := io.ReadAll(r)
	return db.finishLoad(context.Background(), "reader", data, err)
}

// LoadDatabaseFile reads a database from path.
func LoadDatabaseFile(path string, opts ...Option) (*Database, error) {
	db := &Database{opts: applyOptions(opts)}
	data, err := persistence.ReadFile(db.opts.fileSystem, path)
	return db.finishLoad(context.Background(), path, data, err)
}

// LoadDatabaseFrom reads a database from store.
func LoadDatabaseFrom(ctx context.Context, store blobstore.Store, name string, opts ...Option) (*Database, error) {
	db := &Database{opts: applyOptions(opts)}
	data, err := store.Get(ctx, name)
	return db.finishLoad(ctx, name, data, err)
}

func (db *Database) finishLoad(ctx context.Context, source string, data []byte, err error) (*Database, error) {
	if err != nil {
		err = ioError(err)
	} else {
		err = db.UnmarshalBinary(data)
	}
	db.opts.logger.LogLoad(ctx, "database", source, err)
	if err != nil {
		return nil, err
	}
	return db, nil
}
