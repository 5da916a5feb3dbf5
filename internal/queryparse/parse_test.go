package queryparse

import (
	"testing"

	"github.com/shopsage/shopsage/internal/models"
)

func TestParse_PriceUnder(t *testing.T) {
	pq := Parse("running shoes under $100")
	if !pq.HasPriceMax || pq.PriceMax != 100 {
		t.Fatalf("expected price_max=100, got %+v", pq)
	}
	if !pq.HasCategory || pq.Category != models.CategoryRunningShoes {
		t.Fatalf("expected category=Running Shoes, got %+v", pq)
	}
}

func TestParse_PriceBelowNoDollarSign(t *testing.T) {
	pq := Parse("shoes below 75.50")
	if !pq.HasPriceMax || pq.PriceMax != 75.50 {
		t.Fatalf("expected price_max=75.50, got %+v", pq)
	}
}

func TestParse_BrandWholeWord(t *testing.T) {
	pq := Parse("Nike running shoes")
	if !pq.HasBrand || pq.Brand != "Nike" {
		t.Fatalf("expected brand=Nike, got %+v", pq)
	}
	if !pq.HasCategory || pq.Category != models.CategoryRunningShoes {
		t.Fatalf("expected category=Running Shoes, got %+v", pq)
	}
}

func TestParse_BrandIsNotSubstringMatch(t *testing.T) {
	// "Nikeshoes" as one token must not match the brand "Nike".
	pq := Parse("Nikeshoes for trail running")
	if pq.HasBrand {
		t.Fatalf("expected no brand match for non-whole-word occurrence, got %+v", pq)
	}
}

func TestParse_MultiWordBrand(t *testing.T) {
	pq := Parse("New Balance training shoes")
	if !pq.HasBrand || pq.Brand != "New Balance" {
		t.Fatalf("expected brand=New Balance, got %+v", pq)
	}
	if !pq.HasCategory || pq.Category != models.CategoryTrainingShoes {
		t.Fatalf("expected category=Training Shoes, got %+v", pq)
	}
}

func TestParse_FirstCategoryMatchWinsByDeclarationOrder(t *testing.T) {
	// "running shoes" appears before "gym shoes"; Running Shoes is declared
	// before Training Shoes, so Running Shoes must win even though both
	// keyword sets are present in the query.
	pq := Parse("running shoes and gym shoes")
	if pq.Category != models.CategoryRunningShoes {
		t.Fatalf("expected first declared category to win, got %v", pq.Category)
	}
}

func TestParse_StripsSurroundingQuotes(t *testing.T) {
	// The category keyword "running shoes" is extracted as well, so only
	// "trail" remains; a leftover quote character would show up here.
	pq := Parse(`"trail running shoes"`)
	if pq.CleanedText != "trail" {
		t.Fatalf("expected quotes stripped, got %q", pq.CleanedText)
	}
}

func TestParse_NoMatchesLeavesCleanedText(t *testing.T) {
	pq := Parse("something completely unrelated to the catalog")
	if pq.HasCategory || pq.HasBrand || pq.HasPriceMax {
		t.Fatalf("expected no structured matches, got %+v", pq)
	}
	if pq.CleanedText != "something completely unrelated to the catalog" {
		t.Fatalf("unexpected cleaned_text: %q", pq.CleanedText)
	}
}

func TestParse_Deterministic(t *testing.T) {
	a := Parse("Nike running shoes under $120")
	b := Parse("Nike running shoes under $120")
	if *a != *b {
		t.Fatalf("expected deterministic output, got %+v vs %+v", a, b)
	}
}

func TestParse_EmptyString(t *testing.T) {
	pq := Parse("")
	if pq.CleanedText != "" || pq.HasCategory || pq.HasBrand || pq.HasPriceMax {
		t.Fatalf("expected empty ParsedQuery for empty input, got %+v", pq)
	}
}

func TestParse_CollapsesWhitespaceAfterExtraction(t *testing.T) {
	pq := Parse("Nike   running shoes   under $50")
	if pq.CleanedText != "" {
		t.Fatalf("expected fully-extracted cleaned_text to be empty, got %q", pq.CleanedText)
	}
}
