package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"lowercases", "ACME", "acme"},
		{"strips inc with comma", "Acme, Inc.", "acme"},
		{"strips llc", "Acme Tools LLC", "acme tools"},
		{"strips corporation", "Acme Corporation", "acme"},
		{"strips renewal tag", "Acme Supply Renewal", "acme supply"},
		{"drops trailing parenthetical", "Acme Supply (Midwest)", "acme supply"},
		{"drops trailing bracket", "Acme Supply [DO NOT USE]", "acme supply"},
		{"ampersand becomes and", "Smith & Sons", "smith and sons"},
		{"punctuation removed", "O'Brien's Hardware", "obriens hardware"},
		{"collapses whitespace", "Acme    Supply   Co.", "acme supply"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"acme", "supply"}, tokenize("Acme Supply Co", 2))
	assert.Equal(t, []string{"north", "west"}, tokenize("North-West", 2))
	assert.Empty(t, tokenize("a b c", 2))
}

func TestSignificantTokens(t *testing.T) {
	// Stopwords and short tokens drop out.
	assert.Equal(t, []string{"springfield"}, significantTokens("City of Springfield Water"))
	assert.Empty(t, significantTokens("Water Systems Group"))
	assert.Equal(t, []string{"acme", "industrial"}, significantTokens("Acme Industrial Co"))
}

func TestTokensOverlap(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want int
	}{
		{"exact tokens", []string{"acme", "supply"}, []string{"acme", "supply"}, 2},
		{"partial", []string{"acme", "supply"}, []string{"acme", "hardware"}, 1},
		{"substring either way", []string{"waterworks"}, []string{"water"}, 1},
		{"disjoint", []string{"acme"}, []string{"globex"}, 0},
		{"empty", nil, []string{"acme"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokensOverlap(tt.a, tt.b))
		})
	}
}
