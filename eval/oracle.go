package eval

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ieee0824/travatar-go/compose"
	"github.com/ieee0824/travatar-go/hypergraph"
	"github.com/ieee0824/travatar-go/ngramlm"
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
)

const (
	oracleOrder = 5
	oracleNbest = 10
)

// CalculateOracle finds, among every derivation reachable in g, the
// candidate scoring highest against ref under m. It works by building an
// unsmoothed n-gram model directly from ref (orders 1..5, each n-gram's
// probability is count(ngram)/count(context)), composing that model over
// g as a second language model (see package compose), and returning the
// best-by-m candidate out of the resulting forest's top 10 (the first one
// on ties). If none of those candidates scores above zero, ref itself is
// returned.
//
// External failures (opening the temp ARPA file, loading it back) are
// logged and ref is returned unchanged, so a caller computing a gain
// against the oracle score still has a well-defined (zero) gain rather
// than failing the whole tuning run.
func (m *Measure) CalculateOracle(g *hypergraph.HyperGraph, ref symbol.Sentence, dict *symbol.Dictionary) symbol.Sentence {
	if g.Empty() {
		return ref
	}

	path := filepath.Join(os.TempDir(), "travatar-oracle-"+uuid.NewString()+".arpa")
	f, err := os.Create(path)
	if err != nil {
		log.Warn("oracle: could not open temp file for writing", "path", path, "err", err)
		return ref
	}
	defer os.Remove(path)
	writeErr := writeOracleARPA(f, ref, dict, oracleOrder)
	closeErr := f.Close()
	if writeErr != nil {
		log.Warn("oracle: failed writing ARPA model", "err", writeErr)
		return ref
	}
	if closeErr != nil {
		log.Warn("oracle: failed closing ARPA model", "err", closeErr)
		return ref
	}

	arpaFile, err := os.Open(path)
	if err != nil {
		log.Warn("oracle: could not reopen ARPA model", "path", path, "err", err)
		return ref
	}
	defer arpaFile.Close()
	model, err := ngramlm.LoadARPA(arpaFile)
	if err != nil {
		log.Warn("oracle: failed loading ARPA model", "err", err)
		return ref
	}
	backend := ngramlm.NewBackend(dict, model)

	scored := hypergraph.New()
	embeddedRoot := scored.Append(g)
	scored.SetRoot(embeddedRoot)
	scored.ScoreEdges(rule.SparseMap{})

	composed := compose.Compose(scored, backend, 0)
	if composed.Empty() {
		return ref
	}
	lmFeature, _, finalFeature := compose.Names(0)
	composed.ScoreEdges(rule.SparseMap{lmFeature: 1, finalFeature: 1})

	best := ref
	bestScore := 0.0
	for _, cand := range composed.Nbest(oracleNbest) {
		score := m.CalculateStats(ref, cand.Words, NoCache, NoCache).ConvertToScore()
		if score > bestScore {
			best = cand.Words
			bestScore = score
		}
	}
	return best
}

// writeOracleARPA writes an ARPA-format n-gram model (log10 probabilities,
// matching ngramlm's own convention) whose only training data is ref
// itself, bordered by <s>/</s>, up to the given order: each n-gram's
// probability is count(ngram)/count(context), with no discounting or
// backoff beyond a floor <unk> entry.
func writeOracleARPA(w io.Writer, ref symbol.Sentence, dict *symbol.Dictionary, order int) error {
	bos, eos := dict.MustWID("<s>"), dict.MustWID("</s>")
	bordered := make(symbol.Sentence, 0, len(ref)+2)
	bordered = append(bordered, bos)
	bordered = append(bordered, ref...)
	bordered = append(bordered, eos)

	counts := make([]map[string]int, order+1)
	words := make([]map[string]symbol.Sentence, order+1)
	for i := range counts {
		counts[i] = make(map[string]int)
		words[i] = make(map[string]symbol.Sentence)
	}

	actOrder := 0
	for i := range bordered {
		var curr symbol.Sentence
		for j := 0; j <= order; j++ {
			key := ngramKey(curr)
			counts[j][key]++
			if _, ok := words[j][key]; !ok {
				cp := make(symbol.Sentence, len(curr))
				copy(cp, curr)
				words[j][key] = cp
			}
			if j > actOrder {
				actOrder = j
			}
			if i+j >= len(bordered) {
				break
			}
			curr = append(curr, bordered[i+j])
		}
	}

	fmt.Fprintln(w, "\\data\\")
	for n := 1; n <= actOrder; n++ {
		size := len(counts[n])
		if n == 1 {
			size++
		}
		fmt.Fprintf(w, "ngram %d=%d\n", n, size)
	}
	for n := 1; n <= actOrder; n++ {
		if n != 1 && len(counts[n]) == 0 {
			break
		}
		fmt.Fprintf(w, "\n\\%d-grams:\n", n)
		if n == 1 {
			fmt.Fprintln(w, "-99\t<unk>\t-99")
		}
		keys := make([]string, 0, len(counts[n]))
		for k := range counts[n] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			count := counts[n][key]
			ws := words[n][key]
			ctxKey := ngramKey(ws[:len(ws)-1])
			ctxCount := counts[n-1][ctxKey]
			logProb := math.Log10(float64(count)) - math.Log10(float64(ctxCount))
			fmt.Fprintf(w, "%.6f\t%s", logProb, dict.PrintWords(ws))
			if n != actOrder {
				fmt.Fprint(w, "\t-99")
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w, "\n\\end\\")
	return nil
}
