package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateNegative(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{
			name: "title alone is insufficient",
			text: "CERTIDÃO NEGATIVA",
			want: false,
		},
		{
			name: "title plus registrar corroboration",
			text: "CERTIDÃO NEGATIVA\nServentia Extrajudicial do 2º Ofício",
			want: true,
		},
		{
			name: "title plus notarial boilerplate",
			text: "CERTIDAO DE OBITO NEGATIVA\nConsulte a autenticidade em www.tjpi.jus.br\nSelo digital ABC1234",
			want: true,
		},
		{
			name: "birth certificate excluded",
			text: "CERTIDÃO DE NASCIMENTO\nCertidão negativa\nCartório do 1º Ofício",
			want: false,
		},
		{
			name: "petition header excluded",
			text: "EXCELENTÍSSIMO SENHOR JUIZ DE DIREITO\ncertidão negativa\ncartório",
			want: false,
		},
		{
			name: "prosecutor page excluded",
			text: "MINISTÉRIO PÚBLICO DO ESTADO\ncertidão negativa do registro civil",
			want: false,
		},
		{
			name: "accent-free ocr output still classifies",
			text: "CERTIDAO NEGATIVA DE OBITO\nRegistro Civil das Pessoas Naturais\nemolumentos: isento",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := EvaluateNegative(tt.text)
			if got := sig.Certificate(); got != tt.want {
				t.Errorf("Certificate() = %v, want %v (signals %+v)", got, tt.want, sig)
			}
		})
	}
}

func TestEvaluateNegative_InformationalSignals(t *testing.T) {
	sig := EvaluateNegative("certidão negativa\ncartório\ngenitor 1: fulano\nhash: abc\nóbito não localizado")
	assert.True(t, sig.Certificate())
	assert.True(t, sig.TableMarks)
	assert.True(t, sig.ObitoMention)
}

func TestDeathKeywordHits(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"none", "página qualquer do processo", 0},
		{"two distinct", "DECLARAÇÃO DE ÓBITO\nMinistério da Saúde", 2},
		{"repeats count once", "Ministério da Saúde\nministerio da saude\nMINISTÉRIO DA SAÚDE", 1},
		{"all five", "Declaração de Óbito Ministério da Saúde República Federativa do Brasil Causas da Morte Cartório do Registro Civil", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeathKeywordHits(tt.text); got != tt.want {
				t.Errorf("DeathKeywordHits = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClassifier_DeathCertificatePages(t *testing.T) {
	c := New(nil)
	pages := []string{
		"petição inicial sobre o óbito",
		"DECLARAÇÃO DE ÓBITO\nMinistério da Saúde\nCausas da Morte",
		"CERTIDÃO DE NASCIMENTO\nDeclaração de Óbito\nMinistério da Saúde", // excluded
		"nada aqui",
	}

	got := c.DeathCertificatePages(context.Background(), pages, nil)
	assert.Equal(t, []int{1}, got)
}

func TestClassifier_DeathCertificateHeaderOCRFallback(t *testing.T) {
	c := New(nil)
	// Body text is OCR garbage; the header crop carries the phrase plus a
	// second keyword.
	pages := []string{"~~~ !!!"}
	header := func(_ context.Context, page int, frac float64) string {
		if page != 0 {
			t.Fatalf("unexpected page %d", page)
		}
		if frac != headerFrac {
			t.Fatalf("unexpected frac %v", frac)
		}
		return "DECLARAÇÃO DE ÓBITO\nREPÚBLICA FEDERATIVA DO BRASIL"
	}

	got := c.DeathCertificatePages(context.Background(), pages, header)
	assert.Equal(t, []int{0}, got)
}

func TestClassifier_NegativeCertificatePages(t *testing.T) {
	c := New(nil)
	pages := []string{
		"CERTIDÃO NEGATIVA\nServentia Extrajudicial", // decided on body
		"CERTIDÃO NEGATIVA",                          // undecided, no corroboration anywhere
		"texto irrelevante",
	}
	calls := 0
	header := func(context.Context, int, float64) string {
		calls++
		return ""
	}

	got := c.NegativeCertificatePages(context.Background(), pages, header)
	assert.Equal(t, []int{0}, got)
	assert.Equal(t, 2, calls, "undecided pages get one header OCR pass each")
}

func TestClassifier_NegativeCertificateSecondPass(t *testing.T) {
	c := New(nil)
	pages := []string{"corpo ilegível"}
	header := func(context.Context, int, float64) string {
		return "CERTIDÃO NEGATIVA DE ÓBITO\nCartório de Registro Civil"
	}

	got := c.NegativeCertificatePages(context.Background(), pages, header)
	assert.Equal(t, []int{0}, got)
}
