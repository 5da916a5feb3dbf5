package store

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// productDoc is the shape indexed into bleve for a product's full-text
// fields. Only name and description carry free text worth ranking.
type productDoc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// openBleveIndex creates or opens a bleve index at path with a mapping tuned
// for product name/description full-text rank. The standard analyzer
// (lowercase + tokenize, no stemming) is used so a query like "runner" does
// not silently match "running" via stemming, keeping rank comparisons
// predictable for testing.
func openBleveIndex(path string) (bleve.Index, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			idx, err := bleve.Open(path)
			if err != nil {
				return nil, fmt.Errorf("failed to open bleve index: %w", err)
			}
			return idx, nil
		}
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	im.AddDocumentMapping("product", docMapping)
	im.DefaultMapping = docMapping

	if path == "" {
		return bleve.NewMemOnly(im)
	}
	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return idx, nil
}

// indexProduct (re-)indexes a single product's full-text fields.
func (s *Store) indexProduct(productID, name, description string) error {
	return s.bleveIndex.Index(productID, productDoc{Name: name, Description: description})
}

// bleveRank returns the raw bleve match score for cleanedText restricted to
// candidateIDs. IDs with no hit (or not present in candidateIDs) are omitted
// from the result, matching the "no lexical match -> lexical_score = 0"
// contract resolved by the caller.
func (s *Store) bleveRank(cleanedText string, candidateIDs []string) (map[string]float64, error) {
	ranks := make(map[string]float64, len(candidateIDs))
	if cleanedText == "" || len(candidateIDs) == 0 {
		return ranks, nil
	}

	idSet := make(map[string]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		idSet[id] = true
	}

	q := bleve.NewMatchQuery(cleanedText)
	req := bleve.NewSearchRequestOptions(q, len(candidateIDs)*4+10, 0, false)
	result, err := s.bleveIndex.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}
	for _, hit := range result.Hits {
		if idSet[hit.ID] {
			ranks[hit.ID] = hit.Score
		}
	}
	return ranks, nil
}
