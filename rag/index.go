package rag

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/hupe1980/tutormesh/logging"
)

// ErrEmptyIndex is returned by Search when no document has been indexed.
var ErrEmptyIndex = errors.New("retrieval index is empty")

// DefaultCollection is the chromem collection holding the tutor corpus.
const DefaultCollection = "tutor"

// DefaultTopK is the number of passages handed to the prompt.
const DefaultTopK = 4

// Chunk is a piece of a source document ready to be indexed.
type Chunk struct {
	Source string
	Page   int
	Text   string
}

// Passage is a search hit.
type Passage struct {
	ID         string
	Content    string
	Metadata   map[string]string
	Similarity float32
}

// IndexOptions configure an Index.
type IndexOptions struct {
	Collection string
	// PersistDir stores the collection on disk; empty keeps it in memory.
	PersistDir string
	Compress   bool
	// Concurrency of embedding calls while adding documents.
	Concurrency int
	Logger      logging.Logger
}

// Index is a chromem vector collection over document chunks.
type Index struct {
	db   *chromem.DB
	col  *chromem.Collection
	opts IndexOptions
}

// NewIndex opens (or creates) the collection. With PersistDir set, a
// previously persisted datastore is loaded and reused.
func NewIndex(embed chromem.EmbeddingFunc, optFns ...func(o *IndexOptions)) (*Index, error) {
	opts := IndexOptions{
		Collection:  DefaultCollection,
		Concurrency: runtime.NumCPU(),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	var (
		db  *chromem.DB
		err error
	)

	if opts.PersistDir != "" {
		db, err = chromem.NewPersistentDB(opts.PersistDir, opts.Compress)
		if err != nil {
			return nil, fmt.Errorf("open datastore %s: %w", opts.PersistDir, err)
		}
	} else {
		db = chromem.NewDB()
	}

	col, err := db.GetOrCreateCollection(opts.Collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", opts.Collection, err)
	}

	return &Index{db: db, col: col, opts: opts}, nil
}

// Count returns the number of indexed chunks.
func (i *Index) Count() int { return i.col.Count() }

// Add embeds and stores chunks. Chunk ids derive from source, page and
// position so that re-indexing a document overwrites it.
func (i *Index) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for n, c := range chunks {
		docs = append(docs, chromem.Document{
			ID:      c.Source + "#" + strconv.Itoa(c.Page) + "#" + strconv.Itoa(n),
			Content: c.Text,
			Metadata: map[string]string{
				"source": c.Source,
				"page":   strconv.Itoa(c.Page),
			},
		})
	}

	if err := i.col.AddDocuments(ctx, docs, i.opts.Concurrency); err != nil {
		return fmt.Errorf("index %d chunks: %w", len(docs), err)
	}

	i.opts.Logger.Info("rag.index.added", "collection", i.opts.Collection, "chunks", len(docs), "total", i.Count())

	return nil
}

// IngestPDF loads, splits and indexes the PDF at path and returns the number
// of chunks added.
func (i *Index) IngestPDF(ctx context.Context, path string, splitter *Splitter) (int, error) {
	pages, err := LoadPDF(path)
	if err != nil {
		return 0, err
	}

	chunks := splitter.SplitPages(pages)
	if err := i.Add(ctx, chunks); err != nil {
		return 0, err
	}

	return len(chunks), nil
}

// EnsurePDF ingests the PDF only when the index is still empty.
func (i *Index) EnsurePDF(ctx context.Context, path string, splitter *Splitter) error {
	if n := i.Count(); n > 0 {
		i.opts.Logger.Debug("rag.index.reused", "collection", i.opts.Collection, "chunks", n)
		return nil
	}

	_, err := i.IngestPDF(ctx, path, splitter)

	return err
}

// Search returns up to k passages most similar to query. k is clamped to
// the number of indexed chunks.
func (i *Index) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	count := i.Count()
	if count == 0 {
		return nil, ErrEmptyIndex
	}
	if k <= 0 {
		k = DefaultTopK
	}
	k = min(k, count)

	results, err := i.col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", i.opts.Collection, err)
	}

	passages := make([]Passage, 0, len(results))
	for _, r := range results {
		passages = append(passages, Passage{
			ID:         r.ID,
			Content:    r.Content,
			Metadata:   r.Metadata,
			Similarity: r.Similarity,
		})
	}

	return passages, nil
}
