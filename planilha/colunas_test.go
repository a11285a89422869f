package planilha

import "testing"

func TestResolveColuna_PriorityOrder(t *testing.T) {
	cabecalhos := []string{"Data da Venda", "Valor Bruto", "Bandeira"}

	if idx := ResolveColuna(cabecalhos, CampoDataVenda); idx != 0 {
		t.Errorf("dataVenda expected index 0, got %d", idx)
	}
	if idx := ResolveColuna(cabecalhos, CampoValorBruto); idx != 1 {
		t.Errorf("valorBruto expected index 1, got %d", idx)
	}
	if idx := ResolveColuna(cabecalhos, CampoBandeira); idx != 2 {
		t.Errorf("bandeira expected index 2, got %d", idx)
	}
	if idx := ResolveColuna(cabecalhos, CampoCNPJ); idx != -1 {
		t.Errorf("cnpj expected no match, got %d", idx)
	}
}

func TestResolveColuna_AccentAndCaseInsensitive(t *testing.T) {
	cabecalhos := []string{"VALOR LÍQUIDO", "Situação", "taxa (%)"}

	if idx := ResolveColuna(cabecalhos, CampoValorLiquido); idx != 0 {
		t.Errorf("valorLiquido expected index 0, got %d", idx)
	}
	if idx := ResolveColuna(cabecalhos, CampoStatus); idx != 1 {
		t.Errorf("status expected index 1 via synonym, got %d", idx)
	}
	if idx := ResolveColuna(cabecalhos, CampoTaxaTotal); idx != 2 {
		t.Errorf("taxaTotal expected index 2, got %d", idx)
	}
}

func TestResolveColuna_SubstringFallback(t *testing.T) {
	cabecalhos := []string{"Bandeira do cartão de crédito", "Hora do evento"}

	if idx := ResolveColuna(cabecalhos, CampoBandeira); idx != 0 {
		t.Errorf("bandeira expected substring match at 0, got %d", idx)
	}
	if idx := ResolveColuna(cabecalhos, CampoHora); idx != 1 {
		t.Errorf("hora expected substring match at 1, got %d", idx)
	}
}

func TestResolveColuna_ExactBeatsSynonymAndSubstring(t *testing.T) {
	// "bandeira" appears as a substring of column 0 but exactly as column 1.
	cabecalhos := []string{"Bandeira do cartão", "Bandeira"}
	if idx := ResolveColuna(cabecalhos, CampoBandeira); idx != 1 {
		t.Errorf("exact match should win, expected 1, got %d", idx)
	}
}

func TestPreencherCabecalhos_SynthesizesPlaceholders(t *testing.T) {
	in := []string{"Data", "", "  ", "Valor"}
	out := PreencherCabecalhos(in)

	expected := []string{"Data", "Coluna 2", "Coluna 3", "Valor"}
	if len(out) != len(expected) {
		t.Fatalf("expected %d headers, got %d", len(expected), len(out))
	}
	for i := range expected {
		if out[i] != expected[i] {
			t.Errorf("header %d expected %q, got %q", i, expected[i], out[i])
		}
	}
}

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Valor Líquido": "valor liquido",
		"SITUAÇÃO":      "situacao",
		"  Data  ":      "data",
		"":              "",
	}
	for in, want := range cases {
		if got := NormalizeHeader(in); got != want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}
