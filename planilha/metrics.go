package planilha

import (
	"strings"

	"bitbucket.org/mfsolucoes/vendas_backend/models"
	"github.com/shopspring/decimal"
)

// taxaTolerancia: fee values within this distance are considered equal when
// deciding between "single rate" and "arithmetic mean of rates".
var taxaTolerancia = decimal.NewFromFloat(0.01)

// Metric-specific header synonym sets. Wider than the per-sale canonical
// field synonyms: summary exports label totals differently from line items.
var (
	sinonimosQuantidade = []string{
		"quantidade de vendas", "qtd vendas", "qtde vendas", "quantidade",
		"número de vendas", "total de vendas",
	}
	sinonimosBrutoMetrica = []string{
		"valor bruto", "valor da venda", "valor venda", "vlr bruto",
		"valor total", "total bruto", "faturamento",
	}
	sinonimosLiquidoMetrica = []string{
		"valor líquido", "vlr líquido", "líquido", "valor a receber",
		"total líquido",
	}
	sinonimosTaxaMetrica = []string{
		"taxa", "taxa total", "taxa mdr", "mdr", "% taxa", "taxa (%)",
		"percentual de taxa",
	}
)

// Metricas are the aggregate financial metrics of one planilha period.
type Metricas struct {
	QuantidadeVendas int             `json:"quantidade_vendas"`
	ValorBruto       decimal.Decimal `json:"valor_bruto"`
	ValorTaxa        decimal.Decimal `json:"valor_taxa"`
	ValorLiquido     decimal.Decimal `json:"valor_liquido"`

	// TaxaAplicada is the resolved fee rate (percent); nil when neither the
	// cliente nor the planilha provided one. A nil rate is the degraded case
	// the reconciler papers over with the reference rate.
	TaxaAplicada *decimal.Decimal `json:"taxa_aplicada"`

	// LiquidoDerivado marks a net total derived from gross and rate rather
	// than read from a usable net column.
	LiquidoDerivado bool `json:"liquido_derivado"`

	EstabelecimentosUnicos int             `json:"estabelecimentos_unicos"`
	FormasPagamentoUnicas  int             `json:"formas_pagamento_unicas"`
	BandeirasUnicas        int             `json:"bandeiras_unicas"`
	MediaParcelas          decimal.Decimal `json:"media_parcelas"`
	VendasAprovadas        int             `json:"vendas_aprovadas"`
	VendasPendentes        int             `json:"vendas_pendentes"`
	VendasCanceladas       int             `json:"vendas_canceladas"`

	// HasCustomValues is true when any administrator override replaced a
	// computed field.
	HasCustomValues bool `json:"has_custom_values"`
}

// CalcularMetricas aggregates a snapshot into period metrics.
//
// Sums run over every row: zero and negative values are included, nothing is
// filtered as suspicious. Fee precedence is cliente rate > column rate(s) >
// none; heterogeneous column rates collapse to their arithmetic mean. The
// net total is derived from gross and rate only when no usable net column
// exists or its sum is exactly zero.
func CalcularMetricas(p *models.Planilha, taxaCliente *decimal.Decimal) Metricas {
	m := Metricas{}

	idxQuantidade := ResolveColunaComSinonimos(p.Cabecalhos, "quantidadeVendas", sinonimosQuantidade)
	idxBruto := ResolveColunaComSinonimos(p.Cabecalhos, CampoValorBruto, sinonimosBrutoMetrica)
	idxLiquido := ResolveColunaComSinonimos(p.Cabecalhos, CampoValorLiquido, sinonimosLiquidoMetrica)
	idxTaxa := ResolveColunaComSinonimos(p.Cabecalhos, CampoTaxaTotal, sinonimosTaxaMetrica)

	coluna := func(idx int) []string {
		if idx < 0 || idx >= len(p.Cabecalhos) {
			return nil
		}
		header := p.Cabecalhos[idx]
		vals := make([]string, 0, len(p.Linhas))
		for _, linha := range p.Linhas {
			vals = append(vals, linha[header])
		}
		return vals
	}

	if vals := coluna(idxBruto); vals != nil {
		for _, v := range vals {
			m.ValorBruto = m.ValorBruto.Add(ParseValor(v))
		}
	}

	liquidoColuna := decimal.Zero
	if vals := coluna(idxLiquido); vals != nil {
		for _, v := range vals {
			liquidoColuna = liquidoColuna.Add(ParseValor(v))
		}
	}

	// Sales count: one deterministic precedence. Explicit count column wins;
	// otherwise canonical sales; otherwise non-empty raw rows. Never more
	// than one of these applies.
	switch {
	case idxQuantidade >= 0:
		total := decimal.Zero
		for _, v := range coluna(idxQuantidade) {
			total = total.Add(ParseValor(v))
		}
		m.QuantidadeVendas = int(total.IntPart())
	case len(p.Vendas) > 0:
		m.QuantidadeVendas = len(p.Vendas)
	default:
		for _, linha := range p.Linhas {
			if !linhaVazia(linha) {
				m.QuantidadeVendas++
			}
		}
	}

	m.TaxaAplicada = resolverTaxa(taxaCliente, coluna(idxTaxa))

	// Net precedence: a usable net column is authoritative.
	if idxLiquido >= 0 && !liquidoColuna.IsZero() {
		m.ValorLiquido = liquidoColuna
	} else if m.TaxaAplicada != nil {
		m.ValorLiquido = m.ValorBruto.Mul(cem.Sub(*m.TaxaAplicada)).Div(cem)
		m.LiquidoDerivado = true
	} else {
		m.ValorLiquido = liquidoColuna
	}

	if m.TaxaAplicada != nil {
		m.ValorTaxa = m.ValorBruto.Mul(*m.TaxaAplicada).Div(cem)
	} else if !m.ValorLiquido.IsZero() {
		m.ValorTaxa = m.ValorBruto.Sub(m.ValorLiquido)
	}

	calcularContagens(&m, p)
	return m
}

// resolverTaxa applies the fee precedence: a configured cliente rate always
// wins; otherwise the fee column decides — the first value when all values
// agree within tolerance, the arithmetic mean when they diverge.
func resolverTaxa(taxaCliente *decimal.Decimal, colunaTaxa []string) *decimal.Decimal {
	if taxaCliente != nil && !taxaCliente.IsZero() {
		t := *taxaCliente
		return &t
	}

	var taxas []decimal.Decimal
	for _, v := range colunaTaxa {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if t := ParseValor(v); !t.IsZero() {
			taxas = append(taxas, t)
		}
	}
	if len(taxas) == 0 {
		return nil
	}

	todasIguais := true
	for _, t := range taxas[1:] {
		if t.Sub(taxas[0]).Abs().GreaterThan(taxaTolerancia) {
			todasIguais = false
			break
		}
	}
	if todasIguais {
		t := taxas[0]
		return &t
	}

	soma := decimal.Zero
	for _, t := range taxas {
		soma = soma.Add(t)
	}
	media := soma.Div(decimal.NewFromInt(int64(len(taxas))))
	return &media
}

func calcularContagens(m *Metricas, p *models.Planilha) {
	if len(p.Vendas) > 0 {
		estabelecimentos := map[string]bool{}
		formas := map[string]bool{}
		bandeiras := map[string]bool{}
		totalParcelas := 0
		for _, v := range p.Vendas {
			if v.Estabelecimento != "" {
				estabelecimentos[NormalizeHeader(v.Estabelecimento)] = true
			}
			if v.FormaPagamento != "" {
				formas[NormalizeHeader(v.FormaPagamento)] = true
			}
			if v.Bandeira != "" {
				bandeiras[NormalizeHeader(v.Bandeira)] = true
			}
			totalParcelas += v.Parcelas

			switch classificarStatus(v.Status) {
			case "aprovada":
				m.VendasAprovadas++
			case "cancelada":
				m.VendasCanceladas++
			case "pendente":
				m.VendasPendentes++
			}
		}
		m.EstabelecimentosUnicos = len(estabelecimentos)
		m.FormasPagamentoUnicas = len(formas)
		m.BandeirasUnicas = len(bandeiras)
		if len(p.Vendas) > 0 {
			m.MediaParcelas = decimal.NewFromInt(int64(totalParcelas)).
				Div(decimal.NewFromInt(int64(len(p.Vendas)))).Round(2)
		}
		return
	}

	// No canonical sales: fall back to raw-column distinct counts.
	m.EstabelecimentosUnicos = contarDistintos(p, CampoEstabelecimento, sinonimosCampo[CampoEstabelecimento])
	m.FormasPagamentoUnicas = contarDistintos(p, CampoFormaPagamento, sinonimosCampo[CampoFormaPagamento])
	m.BandeirasUnicas = contarDistintos(p, CampoBandeira, sinonimosCampo[CampoBandeira])
}

func contarDistintos(p *models.Planilha, campo string, sinonimos []string) int {
	idx := ResolveColunaComSinonimos(p.Cabecalhos, campo, sinonimos)
	if idx < 0 {
		return 0
	}
	header := p.Cabecalhos[idx]
	vistos := map[string]bool{}
	for _, linha := range p.Linhas {
		if v := NormalizeHeader(linha[header]); v != "" {
			vistos[v] = true
		}
	}
	return len(vistos)
}

func classificarStatus(status string) string {
	s := NormalizeHeader(status)
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "cancel") || strings.Contains(s, "estorn") || strings.Contains(s, "negad"):
		return "cancelada"
	case strings.Contains(s, "pendente") || strings.Contains(s, "aguard") || strings.Contains(s, "process"):
		return "pendente"
	case strings.Contains(s, "aprov") || strings.Contains(s, "pag") || strings.Contains(s, "confirm") || strings.Contains(s, "liquid"):
		return "aprovada"
	default:
		return ""
	}
}

func linhaVazia(linha map[string]string) bool {
	for _, v := range linha {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// AplicarValoresCartao overlays an administrator override field-by-field.
// Each present field replaces the computed value; HasCustomValues flags that
// at least one did.
func AplicarValoresCartao(m *Metricas, vc *models.ValoresCartaoPlanilha) {
	if vc == nil {
		return
	}
	if vc.QuantidadeVendas != nil {
		m.QuantidadeVendas = *vc.QuantidadeVendas
		m.HasCustomValues = true
	}
	if vc.ValorBruto != nil {
		m.ValorBruto = *vc.ValorBruto
		m.HasCustomValues = true
	}
	if vc.ValorTaxa != nil {
		m.ValorTaxa = *vc.ValorTaxa
		m.HasCustomValues = true
	}
	if vc.ValorLiquido != nil {
		m.ValorLiquido = *vc.ValorLiquido
		m.HasCustomValues = true
	}
}
