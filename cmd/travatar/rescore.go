package main

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ieee0824/travatar-go/rule"
	"github.com/spf13/cobra"
)

// nbestEntry is one parsed line of an n-best list: "id ||| sentence |||
// feat=val feat=val ...", the format cmd/travatar decode could be
// extended to emit and which rescore reads back in.
type nbestEntry struct {
	id       string
	sentence string
	features rule.SparseMap
	score    float64
}

func newRescoreCommand() *cobra.Command {
	var (
		weightsPath string
		input       string
		output      string
		topOnly     bool
	)

	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Rescore an n-best list against a feature weight vector",
		Example: `  travatar rescore --weights weights.txt < nbest.txt > rescored.txt
  travatar rescore --weights weights.txt --top-only -i nbest.txt -o best.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			weights, err := loadWeightsFile(weightsPath)
			if err != nil {
				return err
			}

			entries, err := readNbest(input)
			if err != nil {
				return err
			}

			groups := groupByID(entries)
			for _, g := range groups {
				for i := range g {
					g[i].score = rule.NewSparseVector(g[i].features).Dot(weights)
				}
				sort.SliceStable(g, func(i, j int) bool { return g[i].score > g[j].score })
			}

			out, closeFn, err := openOutput(output)
			if err != nil {
				return err
			}
			defer closeFn()
			w := bufio.NewWriter(out)
			defer w.Flush()

			for _, g := range groups {
				if topOnly {
					fmt.Fprintln(w, g[0].sentence)
					continue
				}
				for _, e := range g {
					fmt.Fprintf(w, "%s ||| %s ||| %s\n", e.id, e.sentence, formatFeatures(e.features))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&weightsPath, "weights", "", "path to a feature weights file")
	cmd.Flags().StringVarP(&input, "input", "i", "", "n-best list (default stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&topOnly, "top-only", false, "print only each group's best sentence")
	return cmd
}

func readNbest(path string) ([]nbestEntry, error) {
	f, closeFn, err := openOrStdin(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var entries []nbestEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|||")
		if len(fields) != 3 {
			return nil, fmt.Errorf("rescore: line %d: expected 3 \"|||\"-separated fields", lineNum)
		}
		feats, err := parseFeatures(fields[2])
		if err != nil {
			return nil, fmt.Errorf("rescore: line %d: %w", lineNum, err)
		}
		entries = append(entries, nbestEntry{
			id:       strings.TrimSpace(fields[0]),
			sentence: strings.TrimSpace(fields[1]),
			features: feats,
		})
	}
	return entries, scanner.Err()
}

func parseFeatures(s string) (rule.SparseMap, error) {
	feats := make(rule.SparseMap)
	for _, tok := range strings.Fields(s) {
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
	return feats, nil
}

func formatFeatures(feats rule.SparseMap) string {
	names := make([]string, 0, len(feats))
	for name := range feats {
		names = append(names, string(name))
	}
	sort.Strings(names)
	toks := make([]string, len(names))
	for i, name := range names {
		toks[i] = fmt.Sprintf("%s=%g", name, feats[rule.FeatureId(name)])
	}
	return strings.Join(toks, " ")
}

// groupByID partitions entries into per-id runs, preserving each group's
// first-seen order (an n-best list lists every source sentence's
// candidates contiguously).
func groupByID(entries []nbestEntry) [][]nbestEntry {
	order := make([]string, 0)
	byID := make(map[string][]nbestEntry)
	for _, e := range entries {
		if _, ok := byID[e.id]; !ok {
			order = append(order, e.id)
		}
		byID[e.id] = append(byID[e.id], e)
	}
	groups := make([][]nbestEntry, len(order))
	for i, id := range order {
		groups[i] = byID[id]
	}
	return groups
}
