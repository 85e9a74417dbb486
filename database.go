package dbow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/dbow/bow"
	"github.com/hupe1980/dbow/internal/queue"
)

// Result is a single query match.
type Result struct {
	ID    bow.DocID
	Score float64
}

func (r Result) String() string {
	return fmt.Sprintf("<EntryId: %d, Score: %g>", r.ID, r.Score)
}

// QueryResults holds query matches ordered by descending score, ties by
// ascending id.
type QueryResults []Result

func (qr QueryResults) String() string {
	var sb strings.Builder
	for i, r := range qr {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(r.String())
	}
	return sb.String()
}

// QueryOption configures a single query.
type QueryOption func(*queryOptions)

type queryOptions struct {
	maxID    bow.DocID
	hasMaxID bool
}

// WithMaxID restricts the candidates of a query to documents with an id
// lower than or equal to id.
func WithMaxID(id bow.DocID) QueryOption {
	return func(o *queryOptions) {
		o.maxID = id
		o.hasMaxID = true
	}
}

type document struct {
	bow      bow.BowVector
	features bow.FeatureVector // nil unless the direct index is enabled
}

// dbState is everything a Load replaces.
type dbState struct {
	voc          *Vocabulary
	directIndex  bool
	directLevels int // levels up from the leaves
	docs         []document
	inverted     map[bow.WordID]*roaring.Bitmap
}

func (st *dbState) rebuildIndex() {
	st.inverted = make(map[bow.WordID]*roaring.Bitmap)
	for id := range st.docs {
		st.index(uint32(id))
	}
}

func (st *dbState) index(id uint32) {
	if st.inverted == nil {
		st.inverted = make(map[bow.WordID]*roaring.Bitmap)
	}
	for _, e := range st.docs[id].bow {
		bm, ok := st.inverted[e.Word]
		if !ok {
			bm = roaring.New()
			st.inverted[e.Word] = bm
		}
		bm.Add(id)
	}
}

// Database stores documents as BowVectors over its own copy of a
// vocabulary and answers top-K similarity queries.
//
// Database is safe for concurrent use: queries share a read lock, adds,
// Clear and Load take the write lock.
type Database struct {
	mu sync.RWMutex
	dbState

	opts options
}

// NewDatabase creates an empty database over an independent copy of voc.
func NewDatabase(voc *Vocabulary, opts ...Option) (*Database, error) {
	if voc == nil || voc.Empty() {
		return nil, invalidInputf("database needs a non-empty vocabulary")
	}
	o := applyOptions(opts)

	own := voc.Clone()
	own.opts = o

	db := &Database{opts: o}
	db.voc = own
	db.directIndex = o.directIndex
	if o.directIndex {
		db.directLevels = clamp(o.directLevels, 0, own.levels)
	}
	db.inverted = make(map[bow.WordID]*roaring.Bitmap)
	return db, nil
}

// Add transforms descs with the database vocabulary and stores the result
// as a new document.
func (db *Database) Add(descs []Descriptor) (bow.DocID, error) {
	o := db.opts.withDefaults()
	start := time.Now()

	db.mu.Lock()
	id, words, err := db.add(descs)
	db.mu.Unlock()

	o.metricsCollector.RecordAdd(time.Since(start), err)
	o.logger.LogAdd(context.Background(), uint32(id), words, err)
	return id, err
}

func (db *Database) add(descs []Descriptor) (bow.DocID, int, error) {
	if db.voc == nil {
		return 0, 0, invalidInputf("database has no vocabulary")
	}
	var (
		bv  bow.BowVector
		fv  bow.FeatureVector
		err error
	)
	if db.directIndex {
		bv, fv, err = db.voc.TransformFeatures(descs, db.directLevels)
	} else {
		bv, err = db.voc.Transform(descs)
	}
	if err != nil {
		return 0, 0, err
	}
	id, err := db.append(document{bow: bv, features: fv})
	return id, len(bv), err
}

// AddVector stores an already transformed document. fv is kept only when
// the direct index is enabled.
func (db *Database) AddVector(v bow.BowVector, fv bow.FeatureVector) (bow.DocID, error) {
	o := db.opts.withDefaults()
	start := time.Now()

	db.mu.Lock()
	id, err := db.addVector(v, fv)
	db.mu.Unlock()

	o.metricsCollector.RecordAdd(time.Since(start), err)
	o.logger.LogAdd(context.Background(), uint32(id), len(v), err)
	return id, err
}

func (db *Database) addVector(v bow.BowVector, fv bow.FeatureVector) (bow.DocID, error) {
	if db.voc == nil {
		return 0, invalidInputf("database has no vocabulary")
	}
	if err := v.Validate(); err != nil {
		return 0, invalidInputf("%v", err)
	}
	if n := len(v); n > 0 && !db.voc.isWord(v[n-1].Word) {
		return 0, invalidInputf("word %d outside vocabulary of %d words", v[n-1].Word, db.voc.Size())
	}
	doc := document{bow: v.Clone()}
	if db.directIndex {
		for n := range fv {
			if !db.voc.isNode(n) {
				return 0, invalidInputf("node %d outside vocabulary", n)
			}
		}
		doc.features = fv.Clone()
		if doc.features == nil {
			doc.features = make(bow.FeatureVector)
		}
	}
	return db.append(doc)
}

func (db *Database) append(doc document) (bow.DocID, error) {
	if db.directIndex && doc.features == nil {
		doc.features = make(bow.FeatureVector)
	}
	if !db.directIndex {
		doc.features = nil
	}
	if uint64(len(db.docs)) > uint64(^uint32(0)) {
		return 0, invalidInputf("database is full")
	}
	id := uint32(len(db.docs))
	db.docs = append(db.docs, doc)
	db.index(id)
	return bow.DocID(id), nil
}

// AddBatch transforms every descriptor set concurrently and appends the
// documents in input order. On error nothing is appended.
func (db *Database) AddBatch(ctx context.Context, batch [][]Descriptor) ([]bow.DocID, error) {
	o := db.opts.withDefaults()
	start := time.Now()

	ids, err := db.addBatch(ctx, batch, o.concurrency)

	failed := 0
	if err != nil {
		failed = len(batch)
	}
	o.metricsCollector.RecordBatchAdd(len(batch), failed, time.Since(start))
	o.logger.LogBatchAdd(ctx, len(ids), err)
	return ids, err
}

func (db *Database) addBatch(ctx context.Context, batch [][]Descriptor, concurrency int) ([]bow.DocID, error) {
	db.mu.RLock()
	voc, direct, levels := db.voc, db.directIndex, db.directLevels
	db.mu.RUnlock()
	if voc == nil {
		return nil, invalidInputf("database has no vocabulary")
	}

	docs := make([]document, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, descs := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var err error
			if direct {
				docs[i].bow, docs[i].features, err = voc.TransformFeatures(descs, levels)
			} else {
				docs[i].bow, err = voc.Transform(descs)
			}
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.voc != voc {
		return nil, fmt.Errorf("%w: database was reloaded during batch add", ErrInvalidInput)
	}
	if uint64(len(db.docs))+uint64(len(docs)) > uint64(^uint32(0))+1 {
		return nil, invalidInputf("database is full")
	}
	ids := make([]bow.DocID, len(docs))
	for i, doc := range docs {
		id, err := db.append(doc)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// Query transforms descs and returns the topK most similar documents.
func (db *Database) Query(descs []Descriptor, topK int, opts ...QueryOption) (QueryResults, error) {
	o := db.opts.withDefaults()
	start := time.Now()

	db.mu.RLock()
	var (
		res QueryResults
		err error
	)
	switch {
	case topK <= 0:
		err = invalidInputf("topK must be positive, got %d", topK)
	case db.voc == nil:
		err = invalidInputf("database has no vocabulary")
	default:
		var v bow.BowVector
		if v, err = db.voc.Transform(descs); err == nil {
			res = db.query(v, topK, opts)
		}
	}
	db.mu.RUnlock()

	o.metricsCollector.RecordQuery(topK, time.Since(start), err)
	o.logger.LogQuery(context.Background(), topK, len(res), err)
	return res, err
}

// QueryVector returns the topK documents most similar to v.
func (db *Database) QueryVector(v bow.BowVector, topK int, opts ...QueryOption) (QueryResults, error) {
	o := db.opts.withDefaults()
	start := time.Now()

	var res QueryResults
	err := v.Validate()
	switch {
	case err != nil:
		err = invalidInputf("%v", err)
	case topK <= 0:
		err = invalidInputf("topK must be positive, got %d", topK)
	default:
		db.mu.RLock()
		res = db.query(v, topK, opts)
		db.mu.RUnlock()
	}

	o.metricsCollector.RecordQuery(topK, time.Since(start), err)
	o.logger.LogQuery(context.Background(), topK, len(res), err)
	return res, err
}

// query ranks the eligible documents against v. The caller holds the read
// lock.
func (db *Database) query(v bow.BowVector, topK int, optFns []QueryOption) QueryResults {
	var qo queryOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&qo)
		}
	}

	n := uint64(len(db.docs))
	if qo.hasMaxID && uint64(qo.maxID)+1 < n {
		n = uint64(qo.maxID) + 1
	}
	if n == 0 {
		return QueryResults{}
	}

	scoring := db.voc.scoring
	top := queue.NewTopK(topK)

	if !scoring.ZeroOnDisjoint() {
		for id := uint64(0); id < n; id++ {
			top.Push(queue.Item{ID: uint32(id), Score: scoring.Score(v, db.docs[id].bow)})
		}
		return toResults(top.Sorted())
	}

	postings := make([]*roaring.Bitmap, 0, len(v))
	for _, e := range v {
		if bm, ok := db.inverted[e.Word]; ok {
			postings = append(postings, bm)
		}
	}
	candidates := roaring.FastOr(postings...)

	it := candidates.Iterator()
	for it.HasNext() {
		id := it.Next()
		if uint64(id) >= n {
			break
		}
		top.Push(queue.Item{ID: id, Score: scoring.Score(v, db.docs[id].bow)})
	}

	// Documents sharing no word score 0; they take the remaining slots in
	// ascending id order.
	for id := uint64(0); id < n; id++ {
		zero := queue.Item{ID: uint32(id)}
		if worst, ok := top.Worst(); ok && top.Full() && queue.Better(worst, zero) {
			break
		}
		if candidates.Contains(uint32(id)) {
			continue
		}
		top.Push(zero)
	}
	return toResults(top.Sorted())
}

func toResults(items []queue.Item) QueryResults {
	res := make(QueryResults, len(items))
	for i, it := range items {
		res[i] = Result{ID: bow.DocID(it.ID), Score: it.Score}
	}
	return res
}

// Size returns the number of documents.
func (db *Database) Size() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.docs)
}

// Vocabulary returns a copy of the database vocabulary, or nil for a
// database that was never constructed or loaded.
func (db *Database) Vocabulary() *Vocabulary {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.voc == nil {
		return nil
	}
	return db.voc.Clone()
}

// UsingDirectIndex reports whether FeatureVectors are stored.
func (db *Database) UsingDirectIndex() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.directIndex
}

// DirectIndexLevels returns the levelsUp setting of the direct index, 0 when
// it is disabled.
func (db *Database) DirectIndexLevels() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if !db.directIndex {
		return 0
	}
	return db.directLevels
}

// BowVector returns a copy of the BowVector of document id.
func (db *Database) BowVector(id bow.DocID) (bow.BowVector, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if int(id) >= len(db.docs) {
		return nil, invalidInputf("document %d does not exist", id)
	}
	return db.docs[id].bow.Clone(), nil
}

// FeatureVector returns a copy of the FeatureVector of document id. It
// fails when the direct index is disabled.
func (db *Database) FeatureVector(id bow.DocID) (bow.FeatureVector, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if !db.directIndex {
		return nil, invalidInputf("direct index is disabled")
	}
	if int(id) >= len(db.docs) {
		return nil, invalidInputf("document %d does not exist", id)
	}
	return db.docs[id].features.Clone(), nil
}

// Clear removes all documents and keeps the vocabulary.
func (db *Database) Clear() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.docs = nil
	db.inverted = make(map[bow.WordID]*roaring.Bitmap)
}

func (db *Database) String() string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	direct := "no"
	if db.directIndex {
		direct = fmt.Sprintf("yes (levelsUp = %d)", db.directLevels)
	}
	voc := "none"
	if db.voc != nil {
		voc = db.voc.String()
	}
	return fmt.Sprintf("Database: Entries = %d, Using direct index = %s. %s", len(db.docs), direct, voc)
}
