package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ieee0824/travatar-go/lm"
	"github.com/ieee0824/travatar-go/ngramlm"
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/ruletable"
	"github.com/ieee0824/travatar-go/rulefsm"
	"github.com/ieee0824/travatar-go/symbol"
	"github.com/spf13/pflag"
)

// newLogger builds a stderr logger at info level, or debug level under
// -v, via charmbracelet/log's log.NewWithOptions.
func newLogger(verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Level:           level,
	})
}

// grammarOptions bundles the unknown-word fallback flags every subcommand
// that builds a rulefsm.RuleFSM exposes identically.
type grammarOptions struct {
	rulesPath   string
	numFactors  int
	unkLabel    string
	unkFeature  string
	matchAllUnk bool
}

func (o *grammarOptions) registerFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.rulesPath, "rules", "", "path to the rule table")
	flags.IntVar(&o.numFactors, "factors", 1, "number of target factors")
	flags.StringVar(&o.unkLabel, "unk-label", "X", "head label for unknown-word fallback rules")
	flags.StringVar(&o.unkFeature, "unk-feature", "unk", "feature name carried by unknown-word fallback rules")
	flags.BoolVar(&o.matchAllUnk, "match-all-unk", false, "force every single-word span onto the unknown-word rule")
}

// loadGrammar reads o.rulesPath into a RuleFSM against dict, configuring
// the unknown-word fallback the chart decoder consults when no rule
// matches a source word.
func loadGrammar(o grammarOptions, dict *symbol.Dictionary) (*rulefsm.RuleFSM, error) {
	rules, err := ruletable.LoadFile(o.rulesPath, dict, o.numFactors)
	if err != nil {
		return nil, fmt.Errorf("load grammar: %w", err)
	}
	fsm := rulefsm.New()
	for _, r := range rules {
		fsm.Insert(r)
	}
	fsm.UnkLabel = dict.MustWID(o.unkLabel)
	fsm.UnkFeature = rule.FeatureId(o.unkFeature)
	fsm.MatchAllUnk = o.matchAllUnk
	return fsm, nil
}

// loadLMs opens each ARPA file in paths and wraps it as an lm.Model bound
// to dict, in the order given (the chart decoder names each one's
// contribution lmN/unkN/lmfinalN by that order).
func loadLMs(paths []string, dict *symbol.Dictionary) ([]lm.Model, error) {
	lms := make([]lm.Model, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open lm %s: %w", p, err)
		}
		model, err := ngramlm.LoadARPA(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("load lm %s: %w", p, err)
		}
		lms = append(lms, ngramlm.NewBackend(dict, model))
	}
	return lms, nil
}

// loadWeightsFile reads a weights file, or returns an empty SparseMap if
// path is empty (every feature then defaults to zero, per SparseMap's
// missing-entry contract).
func loadWeightsFile(path string) (rule.SparseMap, error) {
	if path == "" {
		return rule.SparseMap{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weights %s: %w", path, err)
	}
	defer f.Close()
	w, err := rule.LoadWeights(f)
	if err != nil {
		return nil, fmt.Errorf("load weights %s: %w", path, err)
	}
	return w, nil
}

// writeWeightsFile writes weights to path, or stdout when path is empty.
func writeWeightsFile(path string, weights rule.SparseMap) error {
	w := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create weights %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	return rule.WriteWeights(w, weights)
}

// readSentences tokenizes one sentence per non-blank line of path (or
// stdin when path is "-" or empty) against dict, which must not yet be
// frozen: unseen tokens become new dictionary entries exactly as grammar
// and LM loading do.
func readSentences(path string, dict *symbol.Dictionary) ([]symbol.Sentence, error) {
	r, closeFn, err := openOrStdin(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var sents []symbol.Sentence
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words, err := dict.ParseWords(line)
		if err != nil {
			return nil, fmt.Errorf("tokenize %q: %w", line, err)
		}
		sents = append(sents, symbol.Sentence(words))
	}
	return sents, scanner.Err()
}

func openOrStdin(path string) (*os.File, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}
