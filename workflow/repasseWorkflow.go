package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mfsolucoes/vendas_backend/config"
	"bitbucket.org/mfsolucoes/vendas_backend/models"
	"bitbucket.org/mfsolucoes/vendas_backend/planilha"
	"bitbucket.org/mfsolucoes/vendas_backend/utils"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TaxaReferencia is the fixed reference fee rate (percent) applied when
// neither an override nor a planilha-derived rate exists.
var TaxaReferencia = decimal.NewFromFloat(5.10)

const (
	AcaoRepasseCriado     = "created"
	AcaoRepasseAtualizado = "updated"
)

// RepasseStore is the ledger surface the reconciler needs. The gorm
// implementation lives in models.GormRepasseStore; tests use fakes.
type RepasseStore interface {
	FindByClienteAndPeriodo(clienteId int, dataRepasse string) (*models.Repasse, error)
	Create(r *models.Repasse) error
	UpdateValores(id int, v models.RepasseValores) error
}

// ProcessRepasseWorkflow reconciles the settlement ledger with a saved
// snapshot's metrics. At most one entry exists per (cliente, period label);
// re-runs update monetary fields only and never touch Status or DataEnvio,
// so manual ledger edits survive re-reconciliation.
//
// Callers must log-and-swallow any returned error: a reconciliation failure
// never fails the snapshot save that triggered it.
func ProcessRepasseWorkflow(store RepasseStore, logger *logrus.Logger, p *models.Planilha, m planilha.Metricas, vc *models.ValoresCartaoPlanilha, clienteNome string) (string, int, error) {
	// Redis lock is a best-effort optimization against concurrent uploads
	// for the same cliente; correctness rests on the unique
	// (cliente, periodo) key, not on Redis.
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(config.GetRedisContext(),
			fmt.Sprintf("repasse:cliente:%d", p.ClienteId), 10*time.Second, nil)
		if err == nil {
			defer lock.Release(config.GetRedisContext())
		} else if err != redislock.ErrNotObtained && logger != nil {
			config.LogError(logger, "repasseWorkflow.go", "ProcessRepasseWorkflow", "Obtaining redis lock", p.ClienteId, err)
		}
	}

	dataRepasse, err := periodoLabel(p)
	if err != nil {
		return "", 0, err
	}

	planilha.AplicarValoresCartao(&m, vc)
	bruto := m.ValorBruto
	taxa := m.ValorTaxa
	liquido := m.ValorLiquido

	// Reference-rate fallback: only when no override supplied a fee amount
	// and no rate came out of the planilha.
	if (vc == nil || vc.ValorTaxa == nil) && m.TaxaAplicada == nil {
		taxa = bruto.Mul(TaxaReferencia).Div(decimal.NewFromInt(100))
	}
	if liquido.IsZero() {
		liquido = bruto.Sub(taxa)
	}

	// An empty period produces no ledger entry.
	if !bruto.IsPositive() {
		return "", 0, nil
	}

	existing, err := store.FindByClienteAndPeriodo(p.ClienteId, dataRepasse)
	if err != nil {
		return "", 0, err
	}

	valores := models.RepasseValores{ValorBruto: bruto, ValorTaxa: taxa, ValorLiquido: liquido}

	var acao string
	var repasseId int
	if existing != nil {
		if err := store.UpdateValores(existing.ID, valores); err != nil {
			return "", 0, err
		}
		acao = AcaoRepasseAtualizado
		repasseId = existing.ID
	} else {
		repasse := &models.Repasse{
			ClienteId:    p.ClienteId,
			ClienteNome:  clienteNome,
			DataRepasse:  dataRepasse,
			ValorBruto:   valores.ValorBruto,
			ValorTaxa:    valores.ValorTaxa,
			ValorLiquido: valores.ValorLiquido,
			Status:       models.StatusRepassePendente,
			DataEnvio:    dataEnvio(p),
		}
		if err := store.Create(repasse); err != nil {
			return "", 0, err
		}
		acao = AcaoRepasseCriado
		repasseId = repasse.ID
	}

	if err := config.PublishEvent(context.Background(), config.EventMessage{
		Event:          models.EventRepasseConciliado,
		ClienteId:      p.ClienteId,
		MaquinetaId:    p.MaquinetaId,
		Tipo:           string(p.Tipo),
		MesReferencia:  p.MesReferencia,
		DataReferencia: p.DataReferencia,
		Acao:           acao,
		ReferenciaId:   repasseId,
	}); err != nil && logger != nil {
		config.LogError(logger, "repasseWorkflow.go", "ProcessRepasseWorkflow", "Publishing repasse-conciliado", repasseId, err)
	}

	return acao, repasseId, nil
}

// periodoLabel derives the ledger idempotency label: the localized day
// string for daily snapshots, the localized month-year string for monthly
// ones.
func periodoLabel(p *models.Planilha) (string, error) {
	if p.Tipo == models.TipoPlanilhaDiario {
		if p.DataReferencia == nil {
			return "", fmt.Errorf("planilha %d is diario without data_referencia", p.ID)
		}
		return utils.FormatDataBR(*p.DataReferencia)
	}
	return utils.FormatMesReferencia(p.MesReferencia)
}

// dataEnvio seeds the entry's sent date on creation only: the reference day
// for daily snapshots, the upload moment for monthly ones.
func dataEnvio(p *models.Planilha) *time.Time {
	if p.Tipo == models.TipoPlanilhaDiario && p.DataReferencia != nil {
		if t, err := time.Parse("2006-01-02", *p.DataReferencia); err == nil {
			return &t
		}
	}
	t := p.DataUpload
	return &t
}
