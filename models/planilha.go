package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Venda is one normalized transaction line of a planilha. Order matches the
// source rows; values come from the column mapper + locale parser, with the
// customer-level fee override applied where configured.
type Venda struct {
	DataVenda       string          `json:"dataVenda"`
	Hora            string          `json:"hora"`
	Estabelecimento string          `json:"estabelecimento"`
	CNPJ            string          `json:"cnpj"`
	FormaPagamento  string          `json:"formaPagamento"`
	Parcelas        int             `json:"parcelas"`
	Bandeira        string          `json:"bandeira"`
	ValorBruto      decimal.Decimal `json:"valorBruto"`
	TaxaTotal       decimal.Decimal `json:"taxaTotal"`
	ValorLiquido    decimal.Decimal `json:"valorLiquido"`
	Status          string          `json:"status"`
	TipoLiquidacao  string          `json:"tipoLiquidacao"`
	DataLiquidacao  string          `json:"dataLiquidacao"`
	Maquineta       string          `json:"maquineta"`
}

// Planilha is one persisted spreadsheet snapshot.
//
// Grain: (cliente_id, maquineta_id, tipo, mes_referencia[, data_referencia]).
// For tipo=mensal at most one live row exists per grain (a new upload
// replaces it). For tipo=diario multiple rows may share a month; the
// canonical row per data_referencia is the most recently uploaded one.
//
// Rows are immutable after creation except for Descricao.
type Planilha struct {
	ID             int          `gorm:"primaryKey" json:"id"`
	ClienteId      int          `gorm:"index:idx_planilha_grain,priority:1;not null" json:"cliente_id"`
	MaquinetaId    *int         `gorm:"index:idx_planilha_grain,priority:2" json:"maquineta_id"`
	Tipo           TipoPlanilha `gorm:"size:16;index:idx_planilha_grain,priority:3;not null" json:"tipo"`
	MesReferencia  string       `gorm:"size:7;index:idx_planilha_grain,priority:4;not null" json:"mes_referencia"`
	DataReferencia *string      `gorm:"size:10;index" json:"data_referencia"`

	NomeArquivo string    `gorm:"size:255" json:"nome_arquivo"`
	DataUpload  time.Time `gorm:"index" json:"data_upload"`
	Descricao   *string   `gorm:"size:500" json:"descricao"`

	Cabecalhos []string            `gorm:"serializer:json" json:"cabecalhos"`
	Linhas     []map[string]string `gorm:"serializer:json" json:"linhas"`
	Vendas     []Venda             `gorm:"serializer:json" json:"vendas"`

	// LinhasIgnoradas counts source rows skipped by the normalizer.
	LinhasIgnoradas int `gorm:"default:0" json:"linhas_ignoradas"`

	// ArquivoObjectKey locates the untouched uploaded file in GCS, for exact
	// re-download. Nil when blob storage was unavailable at upload time.
	ArquivoObjectKey *string `gorm:"size:512" json:"arquivo_object_key"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
