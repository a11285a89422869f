package models

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cliente is the read-only surface this service needs from the accounts
// system. Account management itself lives elsewhere.
type Cliente struct {
	ID   int    `gorm:"primaryKey" json:"id"`
	Nome string `gorm:"size:255" json:"nome"`
	CNPJ string `gorm:"size:18" json:"cnpj"`

	// TaxaMedia is the customer-level fee rate (percent). When set it takes
	// precedence over any fee value found in an uploaded planilha.
	TaxaMedia *decimal.Decimal `gorm:"type:decimal(10,4)" json:"taxa_media"`
}

func GetCliente(db *gorm.DB, clienteId int) (*Cliente, error) {
	var c Cliente
	err := db.First(&c, clienteId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetTaxaCliente is the fee-rate provider: nil when the cliente has no
// configured rate (or does not exist).
func GetTaxaCliente(db *gorm.DB, clienteId int) (*decimal.Decimal, error) {
	c, err := GetCliente(db, clienteId)
	if err != nil || c == nil {
		return nil, err
	}
	return c.TaxaMedia, nil
}
