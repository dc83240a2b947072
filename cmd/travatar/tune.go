package main

import (
	"fmt"
	"math"
	"sort"

	"github.com/ieee0824/travatar-go/chart"
	"github.com/ieee0824/travatar-go/eval"
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
	"github.com/ieee0824/travatar-go/tuning"
	"github.com/spf13/cobra"
)

func newTuneCommand() *cobra.Command {
	var (
		grammar      grammarOptions
		lmPaths      []string
		weightsIn    string
		weightsOut   string
		devSrc       string
		devRef       string
		rootSymbol   string
		popLimit     int
		chartLimit   int
		iterations   int
		minGain      float64
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Tune feature weights against a development set by coordinate-ascent line search",
		Long: `Runs a simplified MERT loop: each iteration redecodes the development set
under the current weights, accumulates every iteration's hypotheses into a
per-sentence forest, then line-searches every active feature direction for
the single step that most improves corpus BLEU (the convex-hull trick of
package tuning), applying only that one move before redecoding again.`,
		Example: `  travatar tune --rules grammar.txt --lm lm.arpa --dev-src dev.src --dev-ref dev.ref \
    --weights-out tuned.weights --iterations 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(verbose)
			dict := symbol.New()

			fsm, err := loadGrammar(grammar, dict)
			if err != nil {
				return err
			}
			lms, err := loadLMs(lmPaths, dict)
			if err != nil {
				return err
			}
			weights, err := loadWeightsFile(weightsIn)
			if err != nil {
				return err
			}

			srcSents, err := readSentences(devSrc, dict)
			if err != nil {
				return err
			}
			refSents, err := readSentences(devRef, dict)
			if err != nil {
				return err
			}
			if len(srcSents) != len(refSents) {
				return fmt.Errorf("tune: %d source sentences but %d references", len(srcSents), len(refSents))
			}
			if len(srcSents) == 0 {
				return fmt.Errorf("tune: empty development set")
			}

			root := dict.MustWID(rootSymbol)
			cfg := chart.Config{
				PopLimit:   popLimit,
				ChartLimit: chartLimit,
				RootSymbol: rule.NewHieroHeadLabels(repeatWID(root, grammar.numFactors+1)),
			}
			dict.Freeze()

			measure := eval.NewMeasure()
			examples := make([]*tuning.Example, len(srcSents))
			for i, ref := range refSents {
				examples[i] = tuning.NewExample(ref, measure)
			}

			for iter := 1; iter <= iterations; iter++ {
				decoder := chart.New(fsm, lms, weights, cfg)
				for i, sent := range srcSents {
					examples[i].AddHypothesis(decoder.Decode(sent))
					examples[i].FindActiveFeatures()
					examples[i].CalculateOracle(dict)
				}

				baseline := corpusScore(examples, weights)

				directions := rankDirections(examples, weights)
				bestFeature := rule.FeatureId("")
				bestStep := 0.0
				bestScore := baseline
				for _, d := range directions {
					gradient := rule.SparseMap{d.id: 1}
					hulls := make([]tuning.ConvexHull, len(examples))
					for i, ex := range examples {
						hulls[i] = ex.CalculateConvexHull(weights, gradient)
					}
					step, score := mergeCorpusHull(hulls)
					if score > bestScore {
						bestScore = score
						bestStep = step
						bestFeature = d.id
					}
				}

				if bestFeature == "" || bestScore-baseline < minGain {
					logger.Info("converged", "iteration", iter, "bleu", baseline)
					break
				}
				weights[bestFeature] = weights[bestFeature] + bestStep
				logger.Info("step accepted", "iteration", iter, "feature", bestFeature,
					"delta", bestStep, "bleu", bestScore, "previous_bleu", baseline)
			}

			return writeWeightsFile(weightsOut, weights)
		},
	}

	flags := cmd.Flags()
	grammar.registerFlags(flags)
	flags.StringArrayVar(&lmPaths, "lm", nil, "path to an ARPA language model (repeatable)")
	flags.StringVar(&weightsIn, "weights-in", "", "path to initial feature weights (default all zero)")
	flags.StringVar(&weightsOut, "weights-out", "", "path to write tuned weights (default stdout)")
	flags.StringVar(&devSrc, "dev-src", "", "development source sentences, one tokenized sentence per line")
	flags.StringVar(&devRef, "dev-ref", "", "development reference translations, one tokenized sentence per line")
	flags.StringVar(&rootSymbol, "root-symbol", "S", "head label a full-sentence derivation must carry")
	flags.IntVar(&popLimit, "pop-limit", 100, "cube-pruning pops per chart cell (negative = unlimited)")
	flags.IntVar(&chartLimit, "chart-limit", -1, "distinct nodes kept per chart cell (negative = unlimited)")
	flags.IntVar(&iterations, "iterations", 10, "maximum number of coordinate-ascent iterations")
	flags.Float64Var(&minGain, "min-gain", 1e-4, "minimum corpus BLEU improvement to accept a step")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	_ = cmd.MarkFlagRequired("rules")
	_ = cmd.MarkFlagRequired("dev-src")
	_ = cmd.MarkFlagRequired("dev-ref")
	return cmd
}

// corpusScore is the development set's current corpus BLEU under weights,
// read off CalculateConvexHull's inactive-gradient fast path (an empty
// gradient touches no example's active features, so each hull collapses
// to the single span already holding that example's current-weights
// score).
func corpusScore(examples []*tuning.Example, weights rule.SparseMap) float64 {
	var acc *eval.Stats
	for _, ex := range examples {
		hull := ex.CalculateConvexHull(weights, rule.SparseMap{})
		if acc == nil {
			acc = hull[0].Stats
		} else {
			acc = acc.Plus(hull[0].Stats)
		}
	}
	return acc.ConvertToScore()
}

type direction struct {
	id   rule.FeatureId
	gain float64
}

// rankDirections orders every feature active anywhere in the development
// set's accumulated forests by its total potential-gain signal (the gap
// between each example's oracle and its current 1-best), so the search
// below tries the directions MERT's gradient considers most promising
// first. Every direction is still tried; the ranking only affects the
// order, not the final pick.
func rankDirections(examples []*tuning.Example, weights rule.SparseMap) []direction {
	discovered := rule.SparseMap{}
	for _, ex := range examples {
		ex.CountWeights(discovered)
	}

	gains := make(map[rule.FeatureId]float64, len(discovered))
	for id := range discovered {
		gains[id] = 0
	}
	for _, ex := range examples {
		for id, g := range ex.CalculatePotentialGain(weights) {
			gains[id] += g
		}
	}

	dirs := make([]direction, 0, len(gains))
	for id, g := range gains {
		dirs = append(dirs, direction{id: id, gain: g})
	}
	sort.Slice(dirs, func(i, j int) bool {
		if dirs[i].gain != dirs[j].gain {
			return dirs[i].gain > dirs[j].gain
		}
		return dirs[i].id < dirs[j].id
	})
	return dirs
}

// mergeCorpusHull combines every example's per-direction ConvexHull into
// one corpus-wide step-size/score curve and returns the step with the
// highest summed BLEU. Each hull partitions the real line into spans
// where a single derivation is optimal; the merged curve changes only at
// a breakpoint from some example's hull, so evaluating the midpoint of
// every interval between consecutive breakpoints (plus one point beyond
// each end) is enough to find every distinct corpus-level score and which
// step size achieves it — the same breakpoint-sweep principle
// buildConvexHull itself uses within a single example.
func mergeCorpusHull(hulls []tuning.ConvexHull) (step, score float64) {
	var breakpoints []float64
	for _, h := range hulls {
		for _, span := range h {
			if !math.IsInf(span.XMin, 0) {
				breakpoints = append(breakpoints, span.XMin)
			}
			if !math.IsInf(span.XMax, 0) {
				breakpoints = append(breakpoints, span.XMax)
			}
		}
	}
	breakpoints = append(breakpoints, 0)
	sort.Float64s(breakpoints)
	breakpoints = dedupeSorted(breakpoints)

	candidates := make([]float64, 0, len(breakpoints)+2)
	candidates = append(candidates, breakpoints[0]-1)
	for i := 0; i+1 < len(breakpoints); i++ {
		candidates = append(candidates, (breakpoints[i]+breakpoints[i+1])/2)
	}
	candidates = append(candidates, breakpoints[len(breakpoints)-1]+1)
	candidates = append(candidates, breakpoints...)

	bestScore := math.Inf(-1)
	bestStep := 0.0
	for _, t := range candidates {
		var acc *eval.Stats
		for _, h := range hulls {
			s := spanAt(h, t)
			if acc == nil {
				acc = s.Stats
			} else {
				acc = acc.Plus(s.Stats)
			}
		}
		if sc := acc.ConvertToScore(); sc > bestScore {
			bestScore = sc
			bestStep = t
		}
	}
	return bestStep, bestScore
}

func spanAt(h tuning.ConvexHull, t float64) tuning.ScoredSpan {
	for _, s := range h {
		if t >= s.XMin && t < s.XMax {
			return s
		}
	}
	return h[len(h)-1]
}

func dedupeSorted(xs []float64) []float64 {
	out := xs[:0:0]
	for i, x := range xs {
		if i == 0 || x != xs[i-1] {
			out = append(out, x)
		}
	}
	return out
}
