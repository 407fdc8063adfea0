// Package search builds hybrid retrieval queries for the document index and
// shapes raw hits into bounded results the model can read. Three signals are
// combined with OR semantics: semantic match on body text, boosted keyword
// match on the title, and nearest-neighbor vector match against per-page
// image descriptions. Embeddings are generated server-side through the
// configured inference endpoint, so no embedding model runs in-process.
package search

// Query construction defaults.
const (
	DefaultTopK     = 10
	DefaultMinScore = 0.5

	// TitleBoost weights exact title matches over body matches.
	TitleBoost = 2.0

	// NumCandidates bounds the kNN candidate pool per shard.
	NumCandidates = 50

	// InnerHitsSize caps the nested image hits returned per document.
	InnerHitsSize = 3
)

// BuildQuery translates (question, topK, minScore) into the retrieval DSL.
// The translation is deterministic: identical inputs always yield an
// identical query, and an empty question still produces a valid query that
// matches nothing rather than an error.
func BuildQuery(question string, topK int, minScore float64, inferenceID string) map[string]interface{} {
	if topK <= 0 {
		topK = DefaultTopK
	}

	return map[string]interface{}{
		"size":      topK,
		"min_score": minScore,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{
						"semantic": map[string]interface{}{
							"field": "main_text",
							"query": question,
						},
					},
					map[string]interface{}{
						"match": map[string]interface{}{
							"title": map[string]interface{}{
								"query": question,
								"boost": TitleBoost,
							},
						},
					},
					map[string]interface{}{
						"nested": map[string]interface{}{
							"path": "page_descriptions",
							"query": map[string]interface{}{
								"knn": map[string]interface{}{
									"field": "page_descriptions.description_vector",
									"query_vector_builder": map[string]interface{}{
										"text_embedding": map[string]interface{}{
											"model_id":   inferenceID,
											"model_text": question,
										},
									},
									"num_candidates": NumCandidates,
								},
							},
							"inner_hits": map[string]interface{}{
								"size": InnerHitsSize,
								"_source": []string{
									"page_descriptions.page_number",
									"page_descriptions.description_text",
									"page_descriptions.image_path",
									"page_descriptions.image_dimensions",
								},
							},
							"score_mode": "max",
						},
					},
				},
				"minimum_should_match": 1,
			},
		},
		"_source": []string{
			"title", "filename", "main_text", "total_pages",
			"extracted_date", "output_directory",
		},
	}
}
