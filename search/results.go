package search

import (
	"fmt"
	"strings"
)

// ExcerptLimit bounds the body excerpt sent back to the model.
const ExcerptLimit = 1000

// excerptMarker signals a truncated excerpt.
const excerptMarker = "..."

// Response is the raw search engine reply, reduced to the parts we read.
type Response struct {
	Hits struct {
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

// Hit is one scored document with optional nested inner hits.
type Hit struct {
	Score     float64              `json:"_score"`
	Source    HitSource            `json:"_source"`
	InnerHits map[string]InnerHits `json:"inner_hits,omitempty"`
}

// HitSource carries the stored document fields.
type HitSource struct {
	Title         string `json:"title"`
	Filename      string `json:"filename"`
	MainText      string `json:"main_text"`
	TotalPages    int    `json:"total_pages"`
	ExtractedDate string `json:"extracted_date"`
}

// InnerHits wraps the nested hit list for one nested path.
type InnerHits struct {
	Hits struct {
		Hits []InnerHit `json:"hits"`
	} `json:"hits"`
}

// InnerHit is one nested page-description match with its own score.
type InnerHit struct {
	Score  float64        `json:"_score"`
	Source InnerHitSource `json:"_source"`
}

// InnerHitSource carries the stored nested fields.
type InnerHitSource struct {
	PageNumber      int         `json:"page_number"`
	DescriptionText string      `json:"description_text"`
	ImagePath       string      `json:"image_path"`
	ImageDimensions *Dimensions `json:"image_dimensions,omitempty"`
}

// Dimensions is an image size in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Result is one shaped search result.
type Result struct {
	Title         string        `json:"title"`
	Filename      string        `json:"filename"`
	Excerpt       string        `json:"excerpt,omitempty"`
	TotalPages    int           `json:"total_pages,omitempty"`
	ExtractedDate string        `json:"extracted_date,omitempty"`
	Score         float64       `json:"relevance_score"`
	Images        []ResultImage `json:"images,omitempty"`
}

// ResultImage is one nested image match carried with its parent result.
type ResultImage struct {
	PageNumber  int         `json:"page_number"`
	Description string      `json:"description"`
	ImagePath   string      `json:"image_path"`
	Dimensions  *Dimensions `json:"dimensions,omitempty"`
	Score       float64     `json:"score"`
}

// ShapeResults reduces a raw response to bounded results. The engine's
// ranking order is preserved, excerpts are truncated to ExcerptLimit, and
// the score floor is re-applied strictly: the engine already filters on
// min_score, but a hit at exactly the floor from a lenient backend must not
// slip through differently than the query promised.
func ShapeResults(response *Response, minScore float64) []Result {
	if response == nil {
		return nil
	}

	var results []Result
	for _, hit := range response.Hits.Hits {
		if hit.Score < minScore {
			continue
		}

		result := Result{
			Title:         hit.Source.Title,
			Filename:      hit.Source.Filename,
			Excerpt:       truncateExcerpt(hit.Source.MainText),
			TotalPages:    hit.Source.TotalPages,
			ExtractedDate: hit.Source.ExtractedDate,
			Score:         hit.Score,
		}

		if nested, ok := hit.InnerHits["page_descriptions"]; ok {
			for _, inner := range nested.Hits.Hits {
				result.Images = append(result.Images, ResultImage{
					PageNumber:  inner.Source.PageNumber,
					Description: inner.Source.DescriptionText,
					ImagePath:   inner.Source.ImagePath,
					Dimensions:  inner.Source.ImageDimensions,
					Score:       inner.Score,
				})
			}
		}

		results = append(results, result)
	}

	return results
}

// truncateExcerpt bounds the excerpt and appends a continuation marker when
// text was dropped. Truncation is by runes so a multi-byte character is
// never split.
func truncateExcerpt(text string) string {
	if text == "" {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= ExcerptLimit {
		return text
	}
	return string(runes[:ExcerptLimit]) + excerptMarker
}

// FormatResults renders the shaped results as the markdown summary fed back
// to the model. An empty result set yields the fixed no-results sentence.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return "No results found for your question."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d relevant documents:\n\n", len(results))

	for idx, result := range results {
		fmt.Fprintf(&sb, "## Result %d: %s\n", idx+1, result.Title)
		fmt.Fprintf(&sb, "**Filename:** %s\n", result.Filename)
		fmt.Fprintf(&sb, "**Relevance Score:** %.2f\n", result.Score)

		if result.TotalPages > 0 {
			fmt.Fprintf(&sb, "**Total Pages:** %d\n", result.TotalPages)
		}
		if result.ExtractedDate != "" {
			fmt.Fprintf(&sb, "**Date:** %s\n", result.ExtractedDate)
		}
		if result.Excerpt != "" {
			fmt.Fprintf(&sb, "\n**Text Excerpt:**\n%s\n", result.Excerpt)
		}

		if len(result.Images) > 0 {
			fmt.Fprintf(&sb, "\n**Relevant Images (%d):**\n", len(result.Images))
			for imgIdx, img := range result.Images {
				fmt.Fprintf(&sb, "  %d. Page %d: %s\n", imgIdx+1, img.PageNumber, img.Description)
				fmt.Fprintf(&sb, "     Image: %s\n", img.ImagePath)
				if img.Dimensions != nil {
					fmt.Fprintf(&sb, "     Size: %dx%dpx\n", img.Dimensions.Width, img.Dimensions.Height)
				}
				fmt.Fprintf(&sb, "     Relevance: %.2f\n", img.Score)
			}
		}

		sb.WriteString("\n" + strings.Repeat("-", 80) + "\n\n")
	}

	return sb.String()
}
