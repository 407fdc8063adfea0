package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeResultsStrictScoreFloor(t *testing.T) {
	response := &Response{}
	response.Hits.Hits = []Hit{
		{Score: 0.5, Source: HitSource{Title: "best match"}},
		{Score: 0.3, Source: HitSource{Title: "weaker match"}},
	}

	// Every hit below the floor is dropped, even when it is the best one.
	assert.Empty(t, ShapeResults(response, 0.9))

	results := ShapeResults(response, 0.5)
	require.Len(t, results, 1)
	assert.Equal(t, "best match", results[0].Title)
}

func TestShapeResultsTruncatesExcerpt(t *testing.T) {
	long := strings.Repeat("a", 5000)
	response := &Response{}
	response.Hits.Hits = []Hit{
		{Score: 1.0, Source: HitSource{Title: "doc", MainText: long}},
	}

	results := ShapeResults(response, 0.5)
	require.Len(t, results, 1)

	excerpt := results[0].Excerpt
	assert.True(t, strings.HasSuffix(excerpt, "..."))
	assert.LessOrEqual(t, len(strings.TrimSuffix(excerpt, "...")), ExcerptLimit)
}

func TestShapeResultsShortExcerptUnmarked(t *testing.T) {
	response := &Response{}
	response.Hits.Hits = []Hit{
		{Score: 1.0, Source: HitSource{MainText: "short body"}},
	}

	results := ShapeResults(response, 0.5)
	require.Len(t, results, 1)
	assert.Equal(t, "short body", results[0].Excerpt)
}

func TestShapeResultsPreservesBackendOrder(t *testing.T) {
	response := &Response{}
	response.Hits.Hits = []Hit{
		{Score: 3.2, Source: HitSource{Title: "first"}},
		{Score: 2.1, Source: HitSource{Title: "second"}},
		{Score: 0.9, Source: HitSource{Title: "third"}},
	}

	results := ShapeResults(response, 0.5)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Title)
	assert.Equal(t, "second", results[1].Title)
	assert.Equal(t, "third", results[2].Title)
}

func TestShapeResultsCarriesNestedImages(t *testing.T) {
	hit := Hit{
		Score:  2.0,
		Source: HitSource{Title: "annual report", Filename: "report.pdf", TotalPages: 42},
		InnerHits: map[string]InnerHits{
			"page_descriptions": {},
		},
	}
	inner := hit.InnerHits["page_descriptions"]
	inner.Hits.Hits = []InnerHit{
		{
			Score: 1.7,
			Source: InnerHitSource{
				PageNumber:      3,
				DescriptionText: "Revenue chart",
				ImagePath:       "/images/page3.png",
				ImageDimensions: &Dimensions{Width: 800, Height: 600},
			},
		},
		{
			Score:  0.4,
			Source: InnerHitSource{PageNumber: 7, DescriptionText: "Org chart"},
		},
	}
	hit.InnerHits["page_descriptions"] = inner

	response := &Response{}
	response.Hits.Hits = []Hit{hit}

	results := ShapeResults(response, 0.5)
	require.Len(t, results, 1)
	require.Len(t, results[0].Images, 2)

	first := results[0].Images[0]
	assert.Equal(t, 3, first.PageNumber)
	assert.Equal(t, "Revenue chart", first.Description)
	assert.Equal(t, "/images/page3.png", first.ImagePath)
	assert.Equal(t, 800, first.Dimensions.Width)
	assert.Equal(t, 1.7, first.Score)

	// Image sub-scores are independent of the parent score and of min_score.
	assert.Equal(t, 0.4, results[0].Images[1].Score)
}

func TestShapeResultsEmptyInputs(t *testing.T) {
	assert.Empty(t, ShapeResults(nil, 0.5))
	assert.Empty(t, ShapeResults(&Response{}, 0.5))
}

func TestFormatResultsNoResults(t *testing.T) {
	assert.Equal(t, "No results found for your question.", FormatResults(nil))
	assert.Equal(t, "No results found for your question.", FormatResults([]Result{}))
}

func TestFormatResultsRendersEveryField(t *testing.T) {
	results := []Result{
		{
			Title:         "Q4 Financial Report",
			Filename:      "q4.pdf",
			Excerpt:       "Revenue grew 12% year over year...",
			TotalPages:    24,
			ExtractedDate: "2025-01-15",
			Score:         2.34,
			Images: []ResultImage{
				{
					PageNumber:  5,
					Description: "Revenue chart",
					ImagePath:   "/images/q4-p5.png",
					Dimensions:  &Dimensions{Width: 1024, Height: 768},
					Score:       1.9,
				},
			},
		},
	}

	output := FormatResults(results)
	assert.Contains(t, output, "Found 1 relevant documents:")
	assert.Contains(t, output, "## Result 1: Q4 Financial Report")
	assert.Contains(t, output, "**Filename:** q4.pdf")
	assert.Contains(t, output, "**Relevance Score:** 2.34")
	assert.Contains(t, output, "**Total Pages:** 24")
	assert.Contains(t, output, "**Date:** 2025-01-15")
	assert.Contains(t, output, "Revenue grew 12% year over year")
	assert.Contains(t, output, "**Relevant Images (1):**")
	assert.Contains(t, output, "1. Page 5: Revenue chart")
	assert.Contains(t, output, "Image: /images/q4-p5.png")
	assert.Contains(t, output, "Size: 1024x768px")
	assert.Contains(t, output, "Relevance: 1.90")
}
