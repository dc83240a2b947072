// Package ruletable reads a plain text synchronous-grammar rule file into
// rule.TranslationRule values. This is the minimal reader SPEC_FULL.md's
// cmd/travatar needs to exercise the decoder end to end; it is not the
// production grammar file format, which spec.md section 6 treats as an
// external collaborator the core only ever sees parsed TranslationRules
// from.
package ruletable

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
)

// ntToken matches a non-terminal occurrence: "[Label]" (a bare head-label
// declaration, only meaningful as a line's very first source token) or
// "[Label,N]" (a co-indexed slot, N linking a target occurrence back to
// the source occurrence that introduced it).
var ntToken = regexp.MustCompile(`^\[(\w+)(?:,(\d+))?\]$`)

// Load parses one synchronous rule per non-blank, non-comment line:
//
//	[HEAD] src tokens ||| trg tokens ||| name=value name=value ...
//
// The optional leading "[HEAD]" names this rule's own head non-terminal
// label; when absent every rule shares the generic label "X", a classic
// Hiero-style single-nonterminal grammar. numFactors is the number of
// target factors to build (normally 1); every factor gets the same
// parsed target pattern, mirroring rule.CfgDataVector's per-factor shape
// without a per-factor input syntax.
func Load(r io.Reader, dict *symbol.Dictionary, numFactors int) ([]*rule.TranslationRule, error) {
	var rules []*rule.TranslationRule
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tr, err := parseLine(line, dict, numFactors)
		if err != nil {
			return nil, fmt.Errorf("ruletable: line %d: %w", lineNum, err)
		}
		rules = append(rules, tr)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ruletable: %w", err)
	}
	return rules, nil
}

// LoadFile is a convenience wrapper that opens a file path.
func LoadFile(path string, dict *symbol.Dictionary, numFactors int) ([]*rule.TranslationRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ruletable: %w", err)
	}
	defer f.Close()
	return Load(f, dict, numFactors)
}

func parseLine(line string, dict *symbol.Dictionary, numFactors int) (*rule.TranslationRule, error) {
	fields := strings.Split(line, "|||")
	if len(fields) != 3 {
		return nil, fmt.Errorf("expected 3 \"|||\"-separated fields, got %d", len(fields))
	}
	srcTokens := strings.Fields(fields[0])
	trgTokens := strings.Fields(fields[1])
	featTokens := strings.Fields(fields[2])

	headLabel := dict.MustWID("X")
	if len(srcTokens) > 0 {
		if m := ntToken.FindStringSubmatch(srcTokens[0]); m != nil && m[2] == "" {
			headLabel = dict.MustWID(m[1])
			srcTokens = srcTokens[1:]
		}
	}

	srcWords := make(symbol.Sentence, 0, len(srcTokens))
	srcSyms := make(symbol.Sentence, 0)
	coindex := make(map[string]int)
	for _, tok := range srcTokens {
		m := ntToken.FindStringSubmatch(tok)
		if m == nil || m[2] == "" {
			w, err := dict.WID(tok)
			if err != nil {
				return nil, fmt.Errorf("source token %q: %w", tok, err)
			}
			srcWords = append(srcWords, w)
			continue
		}
		if _, dup := coindex[m[2]]; dup {
			return nil, fmt.Errorf("source co-index %s used more than once", m[2])
		}
		slot := len(coindex)
		coindex[m[2]] = slot
		label := dict.MustWID(m[1])
		srcWords = append(srcWords, symbol.NonTerminal(slot))
		srcSyms = append(srcSyms, label)
	}

	childHeadLabels := make([]rule.HieroHeadLabels, len(coindex))
	for slot, label := range srcSyms {
		childHeadLabels[slot] = rule.NewHieroHeadLabels(repeatLabel(label, numFactors+1))
	}

	trgVec := make(rule.CfgDataVector, numFactors)
	for f := 0; f < numFactors; f++ {
		words := make(symbol.Sentence, 0, len(trgTokens))
		var syms symbol.Sentence
		for _, tok := range trgTokens {
			m := ntToken.FindStringSubmatch(tok)
			if m == nil || m[2] == "" {
				w, err := dict.WID(tok)
				if err != nil {
					return nil, fmt.Errorf("target token %q: %w", tok, err)
				}
				words = append(words, w)
				continue
			}
			slot, ok := coindex[m[2]]
			if !ok {
				return nil, fmt.Errorf("target co-index %s has no matching source slot", m[2])
			}
			words = append(words, symbol.NonTerminal(slot))
			syms = append(syms, srcSyms[slot])
		}
		trgVec[f] = rule.NewCfgData(words, headLabel, syms)
	}

	feats := make(rule.SparseMap, len(featTokens))
	for _, tok := range featTokens {
		kv := strings.SplitN(tok, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("feature token %q: expected name=value", tok)
		}
		v, err := strconv.ParseFloat(kv[1], 64)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", kv[0], err)
		}
		feats[rule.FeatureId(kv[0])] = v
	}

	return &rule.TranslationRule{
		SrcPattern:      rule.NewCfgData(srcWords, headLabel, srcSyms),
		TrgData:         trgVec,
		Features:        rule.NewSparseVector(feats),
		HeadLabels:      rule.NewHieroHeadLabels(repeatLabel(headLabel, numFactors+1)),
		ChildHeadLabels: childHeadLabels,
	}, nil
}

func repeatLabel(w symbol.WordId, n int) []symbol.WordId {
	out := make([]symbol.WordId, n)
	for i := range out {
		out[i] = w
	}
	return out
}
