package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Lowercases", "COMPTABLE", "comptable"},
		{"Strips diacritics", "Comptabilité générale", "comptabilite generale"},
		{"Apostrophe splits tokens", "chef d'équipe", "chef d equipe"},
		{"Hyphen splits tokens", "Expert-Comptable", "expert comptable"},
		{"Ligature folded", "Cœur de métier", "coeur de metier"},
		{"Collapses punctuation runs", "paie ,  DSN / URSSAF!!", "paie dsn urssaf"},
		{"Keeps digits", "Sage 100 v9", "sage 100 v9"},
		{"Empty string", "", ""},
		{"Punctuation only", "... --- !!!", ""},
		{"Cedilla", "Reçu, façade", "recu facade"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Gestionnaire de Paie (H/F)", "Assistant(e) Juridique", "Développeur Go"}
	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestNormalizeSkillName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Alias to canonical", "Sage 100", "sage"},
		{"Alias after accent folding", "Déclaration Sociale Nominative", "dsn"},
		{"Microsoft prefix", "Microsoft Excel", "excel"},
		{"Unknown skill normalized only", "Charges Sociales", "charges sociales"},
		{"Golang to go", "Golang", "go"},
		{"Empty string", "", ""},
		{"Whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSkillName(tt.input))
		})
	}
}

func TestNormalizeSkills_Deduplicates(t *testing.T) {
	result := NormalizeSkills([]string{"Excel", "MS Excel", "Silae", "", "silae"})
	assert.Equal(t, []string{"excel", "silae"}, result)
}

func TestNormalizeSkills_Empty(t *testing.T) {
	assert.Nil(t, NormalizeSkills(nil))
}
