package models

// TipoPlanilha discriminates the reporting grain of a saved spreadsheet.
type TipoPlanilha string

const (
	TipoPlanilhaMensal TipoPlanilha = "mensal"
	TipoPlanilhaDiario TipoPlanilha = "diario"
)

func (t TipoPlanilha) Valid() bool {
	return t == TipoPlanilhaMensal || t == TipoPlanilhaDiario
}

// StatusRepasse is the settlement status of a ledger entry. Reconciliation
// never changes it after creation; manual edits own it.
type StatusRepasse string

const (
	StatusRepassePendente  StatusRepasse = "pendente"
	StatusRepassePago      StatusRepasse = "pago"
	StatusRepasseCancelado StatusRepasse = "cancelado"
)

// Presentation refresh events.
const (
	EventPlanilhaSalva            = "planilha-salva"
	EventValoresCartaoAtualizados = "valores-cartao-atualizados"
	EventRepasseConciliado        = "repasse-conciliado"
)
