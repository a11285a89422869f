package workflow

import (
	"fmt"
	"testing"
	"time"

	"bitbucket.org/mfsolucoes/vendas_backend/models"
	"bitbucket.org/mfsolucoes/vendas_backend/planilha"
	"bitbucket.org/mfsolucoes/vendas_backend/utils"
	"github.com/shopspring/decimal"
)

// fakeRepasseStore keeps the ledger in memory, keyed the same way the unique
// index keys it in MySQL.
type fakeRepasseStore struct {
	entries map[string]*models.Repasse
	nextId  int
}

func newFakeRepasseStore() *fakeRepasseStore {
	return &fakeRepasseStore{entries: map[string]*models.Repasse{}}
}

func key(clienteId int, dataRepasse string) string {
	return fmt.Sprintf("%d|%s", clienteId, dataRepasse)
}

func (s *fakeRepasseStore) FindByClienteAndPeriodo(clienteId int, dataRepasse string) (*models.Repasse, error) {
	r, ok := s.entries[key(clienteId, dataRepasse)]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *fakeRepasseStore) Create(r *models.Repasse) error {
	s.nextId++
	r.ID = s.nextId
	cp := *r
	s.entries[key(r.ClienteId, r.DataRepasse)] = &cp
	return nil
}

func (s *fakeRepasseStore) UpdateValores(id int, v models.RepasseValores) error {
	for _, r := range s.entries {
		if r.ID == id {
			r.ValorBruto = v.ValorBruto
			r.ValorTaxa = v.ValorTaxa
			r.ValorLiquido = v.ValorLiquido
		}
	}
	return nil
}

func planilhaMensal() *models.Planilha {
	return &models.Planilha{
		ID:            1,
		ClienteId:     42,
		Tipo:          models.TipoPlanilhaMensal,
		MesReferencia: "2024-05",
		DataUpload:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func metricasCom(bruto, taxa, liquido int64, rate *decimal.Decimal) planilha.Metricas {
	return planilha.Metricas{
		ValorBruto:   decimal.NewFromInt(bruto),
		ValorTaxa:    decimal.NewFromInt(taxa),
		ValorLiquido: decimal.NewFromInt(liquido),
		TaxaAplicada: rate,
	}
}

func TestProcessRepasseWorkflow_CreatesThenUpdatesSameEntry(t *testing.T) {
	store := newFakeRepasseStore()
	p := planilhaMensal()
	rate := decimal.NewFromInt(5)

	acao, id, err := ProcessRepasseWorkflow(store, nil, p, metricasCom(1000, 50, 950, &rate), nil, "Cliente 42")
	if err != nil {
		t.Fatalf("first reconcile failed: %v", err)
	}
	if acao != AcaoRepasseCriado {
		t.Fatalf("expected created, got %q", acao)
	}
	if len(store.entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(store.entries))
	}

	entry, _ := store.FindByClienteAndPeriodo(42, mustMesLabel(t, "2024-05"))
	if entry == nil {
		t.Fatal("entry not found under the period label")
	}
	if entry.Status != models.StatusRepassePendente {
		t.Fatalf("new entry status expected pendente, got %s", entry.Status)
	}
	if entry.DataEnvio == nil {
		t.Fatal("new monthly entry must carry the upload timestamp as DataEnvio")
	}

	// Simulate a manual ledger edit, then reconcile again with new values.
	store.entries[key(42, entry.DataRepasse)].Status = models.StatusRepassePago

	acao2, id2, err := ProcessRepasseWorkflow(store, nil, p, metricasCom(1200, 60, 1140, &rate), nil, "Cliente 42")
	if err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	if acao2 != AcaoRepasseAtualizado || id2 != id {
		t.Fatalf("expected update of entry %d, got %q %d", id, acao2, id2)
	}
	if len(store.entries) != 1 {
		t.Fatalf("re-reconciliation duplicated the entry: %d", len(store.entries))
	}

	updated, _ := store.FindByClienteAndPeriodo(42, entry.DataRepasse)
	if updated.ValorBruto.String() != "1200" {
		t.Fatalf("monetary fields not updated: %s", updated.ValorBruto.String())
	}
	if updated.Status != models.StatusRepassePago {
		t.Fatalf("re-reconciliation must not regress status, got %s", updated.Status)
	}
}

func TestProcessRepasseWorkflow_NoEntryForEmptyPeriod(t *testing.T) {
	store := newFakeRepasseStore()

	acao, _, err := ProcessRepasseWorkflow(store, nil, planilhaMensal(), metricasCom(0, 0, 0, nil), nil, "Cliente 42")
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if acao != "" || len(store.entries) != 0 {
		t.Fatalf("gross <= 0 must not write, got %q with %d entries", acao, len(store.entries))
	}

	acao, _, err = ProcessRepasseWorkflow(store, nil, planilhaMensal(), metricasCom(-100, 0, 0, nil), nil, "Cliente 42")
	if err != nil || acao != "" || len(store.entries) != 0 {
		t.Fatalf("negative gross must not write, got %q err=%v", acao, err)
	}
}

func TestProcessRepasseWorkflow_ReferenceRateFallback(t *testing.T) {
	store := newFakeRepasseStore()

	// No override fee and no planilha-derived rate: 5.10% of gross.
	_, _, err := ProcessRepasseWorkflow(store, nil, planilhaMensal(), metricasCom(1000, 0, 0, nil), nil, "Cliente 42")
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	entry, _ := store.FindByClienteAndPeriodo(42, mustMesLabel(t, "2024-05"))
	if entry.ValorTaxa.String() != "51" {
		t.Fatalf("expected reference fee 51, got %s", entry.ValorTaxa.String())
	}
	if entry.ValorLiquido.String() != "949" {
		t.Fatalf("expected net 949, got %s", entry.ValorLiquido.String())
	}
}

func TestProcessRepasseWorkflow_OverrideBeatsComputed(t *testing.T) {
	store := newFakeRepasseStore()
	rate := decimal.NewFromInt(5)

	bruto := decimal.NewFromInt(2000)
	taxaOverride := decimal.NewFromInt(80)
	vc := &models.ValoresCartaoPlanilha{ValorBruto: &bruto, ValorTaxa: &taxaOverride}

	_, _, err := ProcessRepasseWorkflow(store, nil, planilhaMensal(), metricasCom(1000, 50, 950, &rate), vc, "Cliente 42")
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	entry, _ := store.FindByClienteAndPeriodo(42, mustMesLabel(t, "2024-05"))
	if entry.ValorBruto.String() != "2000" {
		t.Fatalf("override gross expected 2000, got %s", entry.ValorBruto.String())
	}
	if entry.ValorTaxa.String() != "80" {
		t.Fatalf("override fee expected 80, got %s", entry.ValorTaxa.String())
	}
}

func TestProcessRepasseWorkflow_DailyPeriodLabel(t *testing.T) {
	store := newFakeRepasseStore()
	data := "2024-05-02"
	p := &models.Planilha{
		ID:             2,
		ClienteId:      42,
		Tipo:           models.TipoPlanilhaDiario,
		MesReferencia:  "2024-05",
		DataReferencia: &data,
		DataUpload:     time.Date(2024, 5, 3, 8, 0, 0, 0, time.UTC),
	}
	rate := decimal.NewFromInt(5)

	_, _, err := ProcessRepasseWorkflow(store, nil, p, metricasCom(500, 25, 475, &rate), nil, "Cliente 42")
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	entry, _ := store.FindByClienteAndPeriodo(42, "02/05/2024")
	if entry == nil {
		t.Fatal("daily entry not found under the localized day label")
	}
	if entry.DataEnvio == nil || entry.DataEnvio.Format("2006-01-02") != data {
		t.Fatalf("daily DataEnvio must be the reference day, got %v", entry.DataEnvio)
	}
}

func mustMesLabel(t *testing.T, mes string) string {
	t.Helper()
	label, err := utils.FormatMesReferencia(mes)
	if err != nil {
		t.Fatalf("FormatMesReferencia(%q): %v", mes, err)
	}
	return label
}
