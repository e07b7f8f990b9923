package vecutil

import (
	"context"
	"fmt"

	"github.com/viant/vecstore/vector"
)

// Index stores and queries text through a vector.Store, embedding content
// and queries with Embed.
type Index struct {
	Store       vector.Store
	Embed       EmbedFunc
	ContentType string
}

// NewIndex builds an Index writing records of contentType.
func NewIndex(store vector.Store, contentType string, embed EmbedFunc) (*Index, error) {
	if store == nil {
		return nil, fmt.Errorf("vecutil: store is nil")
	}
	if embed == nil {
		return nil, fmt.Errorf("vecutil: EmbedFunc is nil")
	}
	if contentType == "" {
		contentType = vector.ContentTypeDocumentChunk
	}
	return &Index{Store: store, Embed: embed, ContentType: contentType}, nil
}

// Document is text to be stored.
type Document struct {
	Content     string
	ReferenceID *int64
	Metadata    map[string]any
}

// InsertText embeds and inserts one document.
func (x *Index) InsertText(ctx context.Context, doc Document) (int64, error) {
	ids, err := x.InsertTexts(ctx, []Document{doc})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// InsertTexts embeds all documents and inserts them as one batch.
func (x *Index) InsertTexts(ctx context.Context, docs []Document) ([]int64, error) {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vecs, err := EmbedAll(ctx, x.Embed, texts)
	if err != nil {
		return nil, err
	}
	recs := make([]vector.Record, len(docs))
	for i, d := range docs {
		recs[i] = vector.Record{
			Content:     d.Content,
			Embedding:   vecs[i],
			ContentType: x.ContentType,
			ReferenceID: d.ReferenceID,
			Metadata:    d.Metadata,
		}
	}
	return x.Store.InsertBatch(ctx, recs)
}

// QueryOptions narrows a text query; zero values take the search defaults
// and an empty ContentType searches all types.
type QueryOptions struct {
	MatchCount     int
	MatchThreshold *float64
	ContentType    string
}

// QueryText embeds query and runs a similarity search.
func (x *Index) QueryText(ctx context.Context, query string, opts QueryOptions) ([]vector.Match, error) {
	vecs, err := EmbedAll(ctx, x.Embed, []string{query})
	if err != nil {
		return nil, err
	}
	params := vector.NewSearchParams(vecs[0])
	if opts.MatchCount > 0 {
		params.MatchCount = opts.MatchCount
	}
	if opts.MatchThreshold != nil {
		params.MatchThreshold = *opts.MatchThreshold
	}
	params.ContentType = opts.ContentType
	return x.Store.SimilaritySearch(ctx, params)
}
