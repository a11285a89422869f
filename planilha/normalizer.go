package planilha

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bitbucket.org/mfsolucoes/vendas_backend/config"
	"bitbucket.org/mfsolucoes/vendas_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var cem = decimal.NewFromInt(100)

// MontarVendas converts raw rows into canonical Venda records, in source
// order. taxaCliente, when set, replaces any fee value present in the rows.
//
// A malformed row is skipped with a logged diagnostic and processing
// continues; the returned count reports how many rows were skipped. One bad
// row must never abort the batch.
func MontarVendas(logger *logrus.Logger, cabecalhos []string, linhas []map[string]string, taxaCliente *decimal.Decimal) ([]models.Venda, int) {
	colunas := make(map[string]string)
	for _, campo := range []string{
		CampoDataVenda, CampoHora, CampoEstabelecimento, CampoCNPJ,
		CampoFormaPagamento, CampoParcelas, CampoBandeira, CampoValorBruto,
		CampoTaxaTotal, CampoValorLiquido, CampoStatus, CampoTipoLiquidacao,
		CampoDataLiquidacao, CampoMaquineta,
	} {
		if idx := ResolveColuna(cabecalhos, campo); idx >= 0 {
			colunas[campo] = cabecalhos[idx]
		}
	}

	vendas := make([]models.Venda, 0, len(linhas))
	ignoradas := 0
	for i, linha := range linhas {
		venda, err := montarVenda(linha, colunas, taxaCliente)
		if err != nil {
			ignoradas++
			if logger != nil {
				config.LogError(logger, "normalizer.go", "MontarVendas",
					fmt.Sprintf("skipping row %d", i), linha, err)
			}
			continue
		}
		vendas = append(vendas, venda)
	}
	return vendas, ignoradas
}

func montarVenda(linha map[string]string, colunas map[string]string, taxaCliente *decimal.Decimal) (venda models.Venda, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed row: %v", r)
		}
	}()

	if linha == nil {
		return venda, errors.New("malformed row: no cells")
	}

	celula := func(campo string) string {
		header, ok := colunas[campo]
		if !ok {
			return ""
		}
		return strings.TrimSpace(linha[header])
	}

	venda = models.Venda{
		DataVenda:       celula(CampoDataVenda),
		Hora:            celula(CampoHora),
		Estabelecimento: celula(CampoEstabelecimento),
		CNPJ:            celula(CampoCNPJ),
		FormaPagamento:  celula(CampoFormaPagamento),
		Bandeira:        celula(CampoBandeira),
		Status:          celula(CampoStatus),
		TipoLiquidacao:  celula(CampoTipoLiquidacao),
		DataLiquidacao:  celula(CampoDataLiquidacao),
		Maquineta:       celula(CampoMaquineta),
	}

	if raw := celula(CampoParcelas); raw != "" {
		if n, perr := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(raw, "x"))); perr == nil && n >= 0 {
			venda.Parcelas = n
		}
	}

	venda.ValorBruto = ParseValor(celula(CampoValorBruto))

	// Fee precedence: customer-level override beats whatever the row says.
	// A zero rate counts as unset, same as in resolverTaxa.
	if taxaCliente != nil && !taxaCliente.IsZero() {
		venda.TaxaTotal = *taxaCliente
	} else {
		venda.TaxaTotal = ParseValor(celula(CampoTaxaTotal))
	}

	venda.ValorLiquido = ParseValor(celula(CampoValorLiquido))

	// Derive the net only when the source has none. A source-provided net is
	// authoritative and is never recomputed.
	if venda.ValorLiquido.IsZero() && !venda.ValorBruto.IsZero() && !venda.TaxaTotal.IsZero() {
		venda.ValorLiquido = venda.ValorBruto.Mul(cem.Sub(venda.TaxaTotal)).Div(cem)
	}

	return venda, nil
}
