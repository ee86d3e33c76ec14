// internal/retrieval/query.go
package retrieval

// buildKNNQuery searches the embedding field, restricted to one namespace.
func buildKNNQuery(vector []float32, topK, numCandidates int, namespace string) map[string]interface{} {
	if numCandidates < topK {
		numCandidates = topK
	}

	knn := map[string]interface{}{
		"field":          "embedding",
		"query_vector":   vector,
		"k":              topK,
		"num_candidates": numCandidates,
	}
	if namespace != "" {
		knn["filter"] = map[string]interface{}{
			"term": map[string]interface{}{"namespace": namespace},
		}
	}

	return map[string]interface{}{
		"knn":     knn,
		"_source": []string{"content", "source", "metadata"},
	}
}

// buildTextQuery is the lexical fallback used when no embedder is configured.
func buildTextQuery(text, namespace string) map[string]interface{} {
	boolQuery := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":  text,
					"fields": []string{"content^2", "title"},
					"type":   "best_fields",
				},
			},
		},
	}
	if namespace != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{
				"term": map[string]interface{}{"namespace": namespace},
			},
		}
	}

	return map[string]interface{}{
		"query":   map[string]interface{}{"bool": boolQuery},
		"_source": []string{"content", "source", "metadata"},
	}
}
