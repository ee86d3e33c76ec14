// internal/retrieval/elasticsearch.go
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"supplychain-copilot/internal/common/logger"
)

const (
	ModeKNN  = "knn"
	ModeText = "text"
)

// ElasticsearchRetriever queries a passage index that stores chunk text in
// "content", the document name in "source" (or "metadata.source") and the
// chunk vector in "embedding".
type ElasticsearchRetriever struct {
	client        *elasticsearch.Client
	embedder      Embedder
	index         string
	namespace     string
	mode          string
	numCandidates int
	logger        logger.Logger
}

type ElasticsearchOptions struct {
	Index         string
	Namespace     string
	Mode          string
	NumCandidates int
}

// NewElasticsearchRetriever builds a retriever. A nil embedder forces text mode.
func NewElasticsearchRetriever(client *elasticsearch.Client, embedder Embedder, opts ElasticsearchOptions, log logger.Logger) *ElasticsearchRetriever {
	mode := opts.Mode
	if embedder == nil {
		mode = ModeText
	}
	if mode == "" {
		mode = ModeKNN
	}
	return &ElasticsearchRetriever{
		client:        client,
		embedder:      embedder,
		index:         opts.Index,
		namespace:     opts.Namespace,
		mode:          mode,
		numCandidates: opts.NumCandidates,
		logger:        logger.Component(log, "retrieval"),
	}
}

func (r *ElasticsearchRetriever) Query(ctx context.Context, text string, topK int) ([]Passage, error) {
	if topK <= 0 {
		return []Passage{}, nil
	}

	var body map[string]interface{}
	if r.mode == ModeKNN {
		vector, err := r.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
		}
		body = buildKNNQuery(vector, topK, r.numCandidates, r.namespace)
	} else {
		body = buildTextQuery(text, r.namespace)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrRetrievalFailed, err)
	}

	size := topK
	req := esapi.SearchRequest{
		Index: []string{r.index},
		Body:  bytes.NewReader(payload),
		Size:  &size,
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search failed: %s", ErrRetrievalFailed, res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrRetrievalFailed, err)
	}

	passages := make([]Passage, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		if len(passages) == topK {
			break
		}
		passages = append(passages, Passage{
			Content: hit.Source.Content,
			Source:  hit.Source.sourceName(),
			Score:   hit.Score,
		})
	}

	r.logger.Debug("passages retrieved", map[string]interface{}{
		"mode":  r.mode,
		"index": r.index,
		"topK":  topK,
		"hits":  len(passages),
	})
	return passages, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64      `json:"_score"`
			Source hitSourceDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type hitSourceDoc struct {
	Content  string `json:"content"`
	Source   string `json:"source"`
	Metadata struct {
		Source string `json:"source"`
	} `json:"metadata"`
}

func (d hitSourceDoc) sourceName() string {
	if d.Source != "" {
		return d.Source
	}
	return d.Metadata.Source
}
