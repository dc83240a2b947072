package ruletable

import (
	"strings"
	"testing"

	"github.com/ieee0824/travatar-go/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadTerminalAndSingleSlotRules is the spec's concrete scenario 3's
// grammar: "the cat" and "the [X]" as source patterns.
func TestLoadTerminalAndSingleSlotRules(t *testing.T) {
	dict := symbol.New()
	src := `the cat ||| le chat ||| p=1.0
the [X,1] ||| le [X,1] ||| p=0.5
`
	rules, err := Load(strings.NewReader(src), dict, 1)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	r0 := rules[0]
	assert.Equal(t, 0, r0.NumSlots())
	assert.InDelta(t, 1.0, r0.Features.Get("p"), 1e-9)
	require.Len(t, r0.TrgData, 1)
	assert.Equal(t, 2, len(r0.TrgData[0].Words))

	r1 := rules[1]
	require.Equal(t, 1, r1.NumSlots())
	assert.True(t, symbol.IsNonTerminal(r1.SrcPattern.Words[1]))
	assert.Equal(t, 0, symbol.SlotIndex(r1.SrcPattern.Words[1]))
	require.Len(t, r1.TrgData[0].Words, 2)
	assert.True(t, symbol.IsNonTerminal(r1.TrgData[0].Words[1]))
}

func TestLoadHeadLabelDeclaration(t *testing.T) {
	dict := symbol.New()
	src := `[S] a [X,1] ||| A [X,1] ||| p=1.0`
	rules, err := Load(strings.NewReader(src), dict, 1)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	sLabel := dict.MustWID("S")
	assert.Equal(t, sLabel, rules[0].SrcPattern.Label)
	assert.Equal(t, []symbol.WordId{sLabel, sLabel}, rules[0].HeadLabels.Labels())
}

func TestLoadSkipsBlankAndCommentLines(t *testing.T) {
	dict := symbol.New()
	src := "\n# a comment\na ||| b ||| p=1.0\n\n"
	rules, err := Load(strings.NewReader(src), dict, 1)
	require.NoError(t, err)
	require.Len(t, rules, 1)
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	dict := symbol.New()
	_, err := Load(strings.NewReader("only one field\n"), dict, 1)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownTargetCoindex(t *testing.T) {
	dict := symbol.New()
	_, err := Load(strings.NewReader("a ||| [X,9] ||| p=1.0\n"), dict, 1)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedFeature(t *testing.T) {
	dict := symbol.New()
	_, err := Load(strings.NewReader("a ||| b ||| notafeature\n"), dict, 1)
	assert.Error(t, err)
}
