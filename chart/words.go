package chart

import (
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
)

// reconstructWords substitutes each tail's realized word sequence into r's
// target-factor-0 template at its non-terminal slot, in slot order. This
// mirrors hypergraph.Nbest's derivation reconstruction; the two are kept
// separate since this one runs during chart construction with childWords
// already known, rather than during post-hoc k-best extraction.
func reconstructWords(r *rule.TranslationRule, childWords []symbol.Sentence) symbol.Sentence {
	if len(r.TrgData) == 0 {
		return nil
	}
	trg := r.TrgData[0]
	out := make(symbol.Sentence, 0, len(trg.Words))
	for _, w := range trg.Words {
		if symbol.IsNonTerminal(w) {
			slot := symbol.SlotIndex(w)
			out = append(out, childWords[slot]...)
			continue
		}
		out = append(out, w)
	}
	return out
}

func wordsKey(words symbol.Sentence) string {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		u := uint32(w)
		buf[i*4] = byte(u)
		buf[i*4+1] = byte(u >> 8)
		buf[i*4+2] = byte(u >> 16)
		buf[i*4+3] = byte(u >> 24)
	}
	return string(buf)
}
