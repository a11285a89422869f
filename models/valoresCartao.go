package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ValoresCartaoPlanilha is an administrator override of the displayed and
// reconciled metrics for one period. Nil fields keep the computed value;
// set fields replace it (partial override is legal).
type ValoresCartaoPlanilha struct {
	ID             int          `gorm:"primaryKey" json:"id"`
	ClienteId      int          `gorm:"index:idx_vc_grain,unique,priority:1;not null" json:"cliente_id"`
	MaquinetaId    *int         `gorm:"index:idx_vc_grain,unique,priority:2" json:"maquineta_id"`
	Tipo           TipoPlanilha `gorm:"size:16;index:idx_vc_grain,unique,priority:3;not null" json:"tipo"`
	MesReferencia  string       `gorm:"size:7;index:idx_vc_grain,unique,priority:4;not null" json:"mes_referencia"`
	DataReferencia *string      `gorm:"size:10;index:idx_vc_grain,unique,priority:5" json:"data_referencia"`

	QuantidadeVendas *int             `json:"quantidade_vendas"`
	ValorBruto       *decimal.Decimal `gorm:"type:decimal(20,4)" json:"valor_bruto"`
	ValorTaxa        *decimal.Decimal `gorm:"type:decimal(20,4)" json:"valor_taxa"`
	ValorLiquido     *decimal.Decimal `gorm:"type:decimal(20,4)" json:"valor_liquido"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func valoresCartaoScope(db *gorm.DB, clienteId int, maquinetaId *int, tipo TipoPlanilha, mesReferencia string, dataReferencia *string) *gorm.DB {
	q := db.Where("cliente_id = ? AND tipo = ? AND mes_referencia = ?", clienteId, tipo, mesReferencia)
	if maquinetaId != nil {
		q = q.Where("maquineta_id = ?", *maquinetaId)
	} else {
		q = q.Where("maquineta_id IS NULL")
	}
	if dataReferencia != nil {
		q = q.Where("data_referencia = ?", *dataReferencia)
	} else {
		q = q.Where("data_referencia IS NULL")
	}
	return q
}

// GetValoresCartao returns the override for the period, or nil when none
// exists.
func GetValoresCartao(db *gorm.DB, clienteId int, maquinetaId *int, tipo TipoPlanilha, mesReferencia string, dataReferencia *string) (*ValoresCartaoPlanilha, error) {
	var vc ValoresCartaoPlanilha
	err := valoresCartaoScope(db, clienteId, maquinetaId, tipo, mesReferencia, dataReferencia).First(&vc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vc, nil
}

// SetValoresCartao upserts the override for its period key.
func SetValoresCartao(db *gorm.DB, vc *ValoresCartaoPlanilha) error {
	existing, err := GetValoresCartao(db, vc.ClienteId, vc.MaquinetaId, vc.Tipo, vc.MesReferencia, vc.DataReferencia)
	if err != nil {
		return err
	}
	if existing == nil {
		return db.Create(vc).Error
	}
	vc.ID = existing.ID
	vc.CreatedAt = existing.CreatedAt
	return db.Save(vc).Error
}

// DeleteValoresCartao removes the override, reverting display to computed
// values. Deleting a missing override is not an error.
func DeleteValoresCartao(db *gorm.DB, clienteId int, maquinetaId *int, tipo TipoPlanilha, mesReferencia string, dataReferencia *string) error {
	return valoresCartaoScope(db, clienteId, maquinetaId, tipo, mesReferencia, dataReferencia).
		Delete(&ValoresCartaoPlanilha{}).Error
}
