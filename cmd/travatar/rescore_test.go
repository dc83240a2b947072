package main

import (
	"testing"

	"github.com/ieee0824/travatar-go/rule"
)

func TestParseFeatures(t *testing.T) {
	feats, err := parseFeatures("p=1.5 lm0=-3.2")
	if err != nil {
		t.Fatal(err)
	}
	if feats["p"] != 1.5 || feats["lm0"] != -3.2 {
		t.Errorf("parseFeatures = %v, want p=1.5 lm0=-3.2", feats)
	}
}

func TestParseFeaturesRejectsMalformedToken(t *testing.T) {
	if _, err := parseFeatures("notafeature"); err == nil {
		t.Error("expected an error for a token with no '='")
	}
}

func TestFormatFeaturesIsSortedByName(t *testing.T) {
	got := formatFeatures(rule.SparseMap{"b": 1, "a": 2})
	want := "a=2 b=1"
	if got != want {
		t.Errorf("formatFeatures = %q, want %q", got, want)
	}
}

func TestGroupByIDPreservesFirstSeenOrder(t *testing.T) {
	entries := []nbestEntry{
		{id: "1", sentence: "a"},
		{id: "0", sentence: "b"},
		{id: "1", sentence: "c"},
	}
	groups := groupByID(entries)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0][0].id != "1" || len(groups[0]) != 2 {
		t.Errorf("first group = %v, want id 1 with 2 entries", groups[0])
	}
	if groups[1][0].id != "0" || len(groups[1]) != 1 {
		t.Errorf("second group = %v, want id 0 with 1 entry", groups[1])
	}
}

func TestParseFeaturesRejectsNonNumericValue(t *testing.T) {
	// readNbest hands each line's feature field to parseFeatures, which
	// rejects a value that does not parse as a number.
	if _, err := parseFeatures("x=notanumber"); err == nil {
		t.Error("expected a parse error for a non-numeric feature value")
	}
}
