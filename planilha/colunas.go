package planilha

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical sale fields. Arbitrary planilha headers are resolved to these
// keys by ResolveColuna.
const (
	CampoDataVenda       = "dataVenda"
	CampoHora            = "hora"
	CampoEstabelecimento = "estabelecimento"
	CampoCNPJ            = "cnpj"
	CampoFormaPagamento  = "formaPagamento"
	CampoParcelas        = "parcelas"
	CampoBandeira        = "bandeira"
	CampoValorBruto      = "valorBruto"
	CampoTaxaTotal       = "taxaTotal"
	CampoValorLiquido    = "valorLiquido"
	CampoStatus          = "status"
	CampoTipoLiquidacao  = "tipoLiquidacao"
	CampoDataLiquidacao  = "dataLiquidacao"
	CampoMaquineta       = "maquineta"
)

// sinonimosCampo maps each canonical field to the header spellings seen
// across acquirer exports. Matching is accent- and case-insensitive.
var sinonimosCampo = map[string][]string{
	CampoDataVenda:       {"data da venda", "data venda", "data", "date", "dt venda"},
	CampoHora:            {"hora da venda", "hora venda", "horário", "hora"},
	CampoEstabelecimento: {"estabelecimento", "nome do estabelecimento", "nome fantasia", "razão social", "loja"},
	CampoCNPJ:            {"cnpj", "cpf/cnpj", "cnpj do estabelecimento", "documento"},
	CampoFormaPagamento:  {"forma de pagamento", "forma pagamento", "tipo de pagamento", "modalidade", "produto"},
	CampoParcelas:        {"parcelas", "qtd parcelas", "quantidade de parcelas", "número de parcelas"},
	CampoBandeira:        {"bandeira", "bandeira do cartão", "cartão", "brand"},
	CampoValorBruto:      {"valor bruto", "valor da venda", "valor venda", "vlr bruto", "valor total", "valor original"},
	CampoTaxaTotal:       {"taxa", "taxa total", "taxa mdr", "mdr", "% taxa", "taxa (%)", "percentual de taxa"},
	CampoValorLiquido:    {"valor líquido", "vlr líquido", "líquido", "valor a receber", "valor liquido da venda"},
	CampoStatus:          {"status", "status da venda", "situação"},
	CampoTipoLiquidacao:  {"tipo de liquidação", "tipo liquidação", "liquidação"},
	CampoDataLiquidacao:  {"data de liquidação", "data liquidação", "data pagamento", "data do pagamento", "previsão de pagamento"},
	CampoMaquineta:       {"maquineta", "terminal", "número do terminal", "nº terminal", "serial", "equipamento"},
}

// NormalizeHeader lowercases and strips accents (NFD decomposition, combining
// marks removed), collapsing surrounding whitespace. The same normalization
// is applied to both sides of every comparison.
func NormalizeHeader(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	return strings.TrimSpace(strings.ToLower(result))
}

// ResolveColuna resolves a canonical field to a header index. Priority, first
// hit wins:
//
//  1. exact match against the field key itself
//  2. exact match against any synonym of the field
//  3. substring containment in either direction
//
// All comparisons run on NormalizeHeader output. Returns -1 when no header
// matches; it never fails.
func ResolveColuna(cabecalhos []string, campo string) int {
	return ResolveColunaComSinonimos(cabecalhos, campo, sinonimosCampo[campo])
}

// ResolveColunaComSinonimos is ResolveColuna with an explicit synonym set,
// used by the metrics aggregator for its metric-specific header sets.
func ResolveColunaComSinonimos(cabecalhos []string, campo string, sinonimos []string) int {
	campoNorm := NormalizeHeader(campo)

	normalizados := make([]string, len(cabecalhos))
	for i, c := range cabecalhos {
		normalizados[i] = NormalizeHeader(c)
	}

	for i, c := range normalizados {
		if c != "" && c == campoNorm {
			return i
		}
	}

	for _, sin := range sinonimos {
		sinNorm := NormalizeHeader(sin)
		for i, c := range normalizados {
			if c != "" && c == sinNorm {
				return i
			}
		}
	}

	for i, c := range normalizados {
		if c == "" {
			continue
		}
		if strings.Contains(c, campoNorm) || strings.Contains(campoNorm, c) {
			return i
		}
	}
	return -1
}

// PreencherCabecalhos replaces blank header cells with positional
// placeholders ("Coluna N"). Columns are never dropped, even unnamed ones:
// row/column completeness is a correctness requirement here.
func PreencherCabecalhos(cabecalhos []string) []string {
	out := make([]string, len(cabecalhos))
	for i, c := range cabecalhos {
		c = strings.TrimSpace(c)
		if c == "" {
			c = fmt.Sprintf("Coluna %d", i+1)
		}
		out[i] = c
	}
	return out
}
