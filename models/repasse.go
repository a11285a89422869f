package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repasse is one settlement-transfer ledger entry, at most one per
// (cliente_id, data_repasse). DataRepasse is the human period label
// ("02/05/2024" for daily periods, "maio/2024" for monthly ones) and doubles
// as the idempotency key.
type Repasse struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	ClienteId   int    `gorm:"index:idx_repasse_periodo,unique,priority:1;not null" json:"cliente_id"`
	ClienteNome string `gorm:"size:255" json:"cliente_nome"`
	DataRepasse string `gorm:"size:32;index:idx_repasse_periodo,unique,priority:2;not null" json:"data_repasse"`

	ValorBruto   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"valor_bruto"`
	ValorTaxa    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"valor_taxa"`
	ValorLiquido decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"valor_liquido"`

	Status    StatusRepasse `gorm:"size:16;default:pendente" json:"status"`
	DataEnvio *time.Time    `json:"data_envio"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RepasseValores are the monetary fields reconciliation is allowed to touch
// on an existing entry. Status and DataEnvio belong to manual ledger edits.
type RepasseValores struct {
	ValorBruto   decimal.Decimal
	ValorTaxa    decimal.Decimal
	ValorLiquido decimal.Decimal
}

// GormRepasseStore implements workflow.RepasseStore over gorm.
type GormRepasseStore struct {
	DB *gorm.DB
}

func (s GormRepasseStore) FindByClienteAndPeriodo(clienteId int, dataRepasse string) (*Repasse, error) {
	var r Repasse
	err := s.DB.Where("cliente_id = ? AND data_repasse = ?", clienteId, dataRepasse).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func (s GormRepasseStore) Create(r *Repasse) error {
	return s.DB.Create(r).Error
}

func (s GormRepasseStore) UpdateValores(id int, v RepasseValores) error {
	return s.DB.Model(&Repasse{}).Where("id = ?", id).Updates(map[string]interface{}{
		"valor_bruto":   v.ValorBruto,
		"valor_taxa":    v.ValorTaxa,
		"valor_liquido": v.ValorLiquido,
	}).Error
}

// ListRepasses returns the ledger for a cliente, most recent first.
func ListRepasses(db *gorm.DB, clienteId int) ([]Repasse, error) {
	var repasses []Repasse
	err := db.Where("cliente_id = ?", clienteId).Order("id DESC").Find(&repasses).Error
	return repasses, err
}
