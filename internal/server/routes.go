package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/viant/vecstore/vector"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*healthOutput, error) {
		return &healthOutput{Body: healthBody{Status: "ok"}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "insert-record",
		Method:        http.MethodPost,
		Path:          "/api/v1/records",
		Summary:       "Insert a record",
		Tags:          []string{"records"},
		DefaultStatus: http.StatusCreated,
	}, s.handleInsert)

	huma.Register(s.api, huma.Operation{
		OperationID:   "insert-records",
		Method:        http.MethodPost,
		Path:          "/api/v1/records/batch",
		Summary:       "Insert records atomically",
		Tags:          []string{"records"},
		DefaultStatus: http.StatusCreated,
	}, s.handleInsertBatch)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-record",
		Method:      http.MethodGet,
		Path:        "/api/v1/records/{id}",
		Summary:     "Get a record",
		Tags:        []string{"records"},
	}, s.handleGet)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-reference-records",
		Method:      http.MethodGet,
		Path:        "/api/v1/references/{referenceId}/records",
		Summary:     "List records of a knowledge-base entity",
		Tags:        []string{"records"},
	}, s.handleFindByReference)

	huma.Register(s.api, huma.Operation{
		OperationID: "similarity-search",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Cosine similarity search",
		Tags:        []string{"search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Record counts by content type",
		Tags:        []string{"system"},
	}, s.handleStats)
}

type healthBody struct {
	Status string `json:"status" example:"ok" doc:"Health status"`
}

type healthOutput struct {
	Body healthBody
}

// RecordBody is the JSON form of a record to insert.
type RecordBody struct {
	Content     string         `json:"content" doc:"Source text"`
	Embedding   []float32      `json:"embedding" doc:"Embedding of the content"`
	ContentType string         `json:"contentType" example:"document_chunk"`
	ReferenceID *int64         `json:"referenceId,omitempty" doc:"Knowledge-base entity id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (b RecordBody) record() vector.Record {
	return vector.Record{
		Content:     b.Content,
		Embedding:   b.Embedding,
		ContentType: b.ContentType,
		ReferenceID: b.ReferenceID,
		Metadata:    b.Metadata,
	}
}

type insertInput struct {
	Body RecordBody
}

type insertOutput struct {
	Body struct {
		ID int64 `json:"id"`
	}
}

func (s *Server) handleInsert(ctx context.Context, in *insertInput) (*insertOutput, error) {
	id, err := s.store.Insert(ctx, in.Body.record())
	if err != nil {
		return nil, toHTTPError(err)
	}
	out := &insertOutput{}
	out.Body.ID = id
	return out, nil
}

type insertBatchInput struct {
	Body struct {
		Records []RecordBody `json:"records"`
	}
}

type insertBatchOutput struct {
	Body struct {
		IDs []int64 `json:"ids"`
	}
}

func (s *Server) handleInsertBatch(ctx context.Context, in *insertBatchInput) (*insertBatchOutput, error) {
	recs := make([]vector.Record, len(in.Body.Records))
	for i, b := range in.Body.Records {
		recs[i] = b.record()
	}
	ids, err := s.store.InsertBatch(ctx, recs)
	if err != nil {
		return nil, toHTTPError(err)
	}
	out := &insertBatchOutput{}
	out.Body.IDs = ids
	return out, nil
}

type getInput struct {
	ID int64 `path:"id"`
}

type getOutput struct {
	Body *vector.Record
}

func (s *Server) handleGet(ctx context.Context, in *getInput) (*getOutput, error) {
	rec, err := s.store.Get(ctx, in.ID)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &getOutput{Body: rec}, nil
}

type referenceInput struct {
	ReferenceID int64 `path:"referenceId"`
}

type recordsOutput struct {
	Body struct {
		Records []vector.Record `json:"records"`
	}
}

func (s *Server) handleFindByReference(ctx context.Context, in *referenceInput) (*recordsOutput, error) {
	recs, err := s.store.FindByReference(ctx, in.ReferenceID)
	if err != nil {
		return nil, toHTTPError(err)
	}
	out := &recordsOutput{}
	out.Body.Records = recs
	if out.Body.Records == nil {
		out.Body.Records = []vector.Record{}
	}
	return out, nil
}

type searchInput struct {
	Body struct {
		QueryEmbedding []float32 `json:"queryEmbedding"`
		MatchCount     *int      `json:"matchCount,omitempty" doc:"Maximum results, server default when omitted"`
		MatchThreshold *float64  `json:"matchThreshold,omitempty" doc:"Exclusive similarity floor, server default when omitted"`
		ContentType    string    `json:"contentType,omitempty" doc:"Restrict to one content type"`
	}
}

type searchOutput struct {
	Body struct {
		Matches []vector.Match `json:"matches"`
	}
}

func (s *Server) handleSearch(ctx context.Context, in *searchInput) (*searchOutput, error) {
	params := vector.SearchParams{
		QueryEmbedding: in.Body.QueryEmbedding,
		MatchCount:     s.cfg.MatchCount,
		MatchThreshold: s.cfg.MatchThreshold,
		ContentType:    in.Body.ContentType,
	}
	if in.Body.MatchCount != nil {
		params.MatchCount = *in.Body.MatchCount
	}
	if in.Body.MatchThreshold != nil {
		params.MatchThreshold = *in.Body.MatchThreshold
	}
	matches, err := s.store.SimilaritySearch(ctx, params)
	if err != nil {
		return nil, toHTTPError(err)
	}
	out := &searchOutput{}
	out.Body.Matches = matches
	if out.Body.Matches == nil {
		out.Body.Matches = []vector.Match{}
	}
	return out, nil
}

type statsOutput struct {
	Body struct {
		Total         int64            `json:"total"`
		ByContentType map[string]int64 `json:"byContentType"`
	}
}

func (s *Server) handleStats(ctx context.Context, _ *struct{}) (*statsOutput, error) {
	counts, err := s.store.CountByContentType(ctx)
	if err != nil {
		return nil, toHTTPError(err)
	}
	out := &statsOutput{}
	out.Body.ByContentType = counts
	for _, n := range counts {
		out.Body.Total += n
	}
	return out, nil
}
