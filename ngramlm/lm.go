package ngramlm

import (
	"strings"

	"github.com/ieee0824/travatar-go/lm"
	"github.com/ieee0824/travatar-go/symbol"
)

// Backend adapts a Model to the lm.Model interface by converting between
// the shared symbol.Dictionary's WordIds and the strings ngramlm.Model
// scores over. ChartState is the whitespace-joined trailing word history,
// at most order-1 words long.
type Backend struct {
	dict  *symbol.Dictionary
	model *Model
}

// NewBackend wraps model for use through the shared dictionary dict.
func NewBackend(dict *symbol.Dictionary, model *Model) *Backend {
	return &Backend{dict: dict, model: model}
}

const (
	beginSymbol = "<s>"
	endSymbol   = "</s>"
)

func (b *Backend) BeginState() lm.ChartState {
	return lm.ChartState(beginSymbol)
}

func (b *Backend) Score(state lm.ChartState, word symbol.WordId) (float64, lm.ChartState, bool) {
	history := strings.Fields(string(state))
	w := b.dict.WSym(word)
	logProb, oov := b.model.scoreFrom(history, w)
	next := append(append([]string{}, history...), w)
	if max := b.model.order - 1; len(next) > max {
		next = next[len(next)-max:]
	}
	return logProb, lm.ChartState(strings.Join(next, " ")), oov
}

func (b *Backend) FinalScore(state lm.ChartState) float64 {
	history := strings.Fields(string(state))
	logProb, _ := b.model.scoreFrom(history, endSymbol)
	return logProb
}
