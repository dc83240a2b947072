package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/ieee0824/travatar-go/chart"
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newDecodeCommand() *cobra.Command {
	var (
		grammar    grammarOptions
		lmPaths    []string
		weightsIn  string
		rootSymbol string
		popLimit   int
		chartLimit int
		nbest      int
		parallel   int
		input      string
		output     string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Translate sentences with a chart decoder",
		Example: `  travatar decode --rules grammar.txt --lm lm.arpa --weights weights.txt < input.txt
  travatar decode --rules grammar.txt --lm lm.arpa --parallel 4 --nbest 5 -i input.txt -o output.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(verbose)
			dict := symbol.New()

			fsm, err := loadGrammar(grammar, dict)
			if err != nil {
				return err
			}
			logger.Info("grammar loaded")

			lms, err := loadLMs(lmPaths, dict)
			if err != nil {
				return err
			}
			logger.Info("language models loaded", "count", len(lms))

			weights, err := loadWeightsFile(weightsIn)
			if err != nil {
				return err
			}

			sents, err := readSentences(input, dict)
			if err != nil {
				return err
			}
			logger.Info("input read", "sentences", len(sents))

			root := dict.MustWID(rootSymbol)
			cfg := chart.Config{
				PopLimit:   popLimit,
				ChartLimit: chartLimit,
				RootSymbol: rule.NewHieroHeadLabels(repeatWID(root, grammar.numFactors+1)),
			}
			dict.Freeze()

			decoder := chart.New(fsm, lms, weights, cfg)
			translations, err := decodeAll(decoder, sents, nbest, parallel, logger)
			if err != nil {
				return err
			}

			out, closeFn, err := openOutput(output)
			if err != nil {
				return err
			}
			defer closeFn()

			w := bufio.NewWriter(out)
			defer w.Flush()
			for _, t := range translations {
				fmt.Fprintln(w, dict.PrintWords(t))
			}
			logger.Info("decoding complete", "sentences", len(sents))
			return nil
		},
	}

	flags := cmd.Flags()
	grammar.registerFlags(flags)
	flags.StringArrayVar(&lmPaths, "lm", nil, "path to an ARPA language model (repeatable)")
	flags.StringVar(&weightsIn, "weights", "", "path to a feature weights file")
	flags.StringVar(&rootSymbol, "root-symbol", "S", "head label a full-sentence derivation must carry")
	flags.IntVar(&popLimit, "pop-limit", 100, "cube-pruning pops per chart cell (negative = unlimited)")
	flags.IntVar(&chartLimit, "chart-limit", -1, "distinct nodes kept per chart cell (negative = unlimited)")
	flags.IntVar(&nbest, "nbest", 1, "number of candidates considered per sentence (top-1 is printed)")
	flags.IntVar(&parallel, "parallel", 1, "number of sentences to decode concurrently")
	flags.StringVarP(&input, "input", "i", "", "input file, one tokenized sentence per line (default stdin)")
	flags.StringVarP(&output, "output", "o", "", "output file (default stdout)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	_ = cmd.MarkFlagRequired("rules")
	return cmd
}

// decodeAll decodes every sentence, at most parallel at a time, and
// returns each sentence's top-1 translation in input order. The shared
// fsm/lms/weights are read-only once decoding starts (grammar and LMs
// were already fully loaded and the dictionary frozen), so concurrent
// Decoder.Decode calls need no further synchronization.
func decodeAll(decoder *chart.Decoder, sents []symbol.Sentence, nbest, parallel int, logger interface {
	Warn(interface{}, ...interface{})
}) ([]symbol.Sentence, error) {
	out := make([]symbol.Sentence, len(sents))
	if parallel < 1 {
		parallel = 1
	}

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, sent := range sents {
		i, sent := i, sent
		g.Go(func() error {
			hg := decoder.Decode(sent)
			derivs := hg.Nbest(nbest)
			if len(derivs) == 0 {
				logger.Warn("no derivation found", "sentence", i)
				return nil
			}
			out[i] = derivs[0].Words
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func repeatWID(w symbol.WordId, n int) []symbol.WordId {
	out := make([]symbol.WordId, n)
	for i := range out {
		out[i] = w
	}
	return out
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}
