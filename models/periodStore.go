package models

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Input validation sentinels. Handlers map these to client errors; anything
// else out of SavePlanilha is a persistence failure.
var (
	ErrMesReferenciaInvalido     = errors.New("mes_referencia must match the month of data_referencia")
	ErrDataReferenciaObrigatoria = errors.New("data_referencia is required for tipo=diario")
)

func planilhaGrainScope(db *gorm.DB, clienteId int, maquinetaId *int) *gorm.DB {
	q := db.Where("cliente_id = ?", clienteId)
	if maquinetaId != nil {
		q = q.Where("maquineta_id = ?", *maquinetaId)
	} else {
		q = q.Where("maquineta_id IS NULL")
	}
	return q
}

// SavePlanilha persists a snapshot honoring the period-store semantics:
// mensal snapshots replace any live snapshot of the same grain inside one
// transaction; diario snapshots append (the canonical one per date is the
// most recently uploaded, resolved at read time).
func SavePlanilha(db *gorm.DB, p *Planilha) error {
	if !p.Tipo.Valid() {
		return fmt.Errorf("invalid planilha tipo %q", p.Tipo)
	}
	if p.Tipo == TipoPlanilhaDiario {
		if p.DataReferencia == nil {
			return ErrDataReferenciaObrigatoria
		}
		if !strings.HasPrefix(*p.DataReferencia, p.MesReferencia) {
			return ErrMesReferenciaInvalido
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if p.Tipo == TipoPlanilhaMensal {
			err := planilhaGrainScope(tx, p.ClienteId, p.MaquinetaId).
				Where("tipo = ? AND mes_referencia = ?", TipoPlanilhaMensal, p.MesReferencia).
				Delete(&Planilha{}).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(p).Error
	})
}

// GetLatestPlanilha returns the most recently uploaded snapshot for the
// grain, optionally narrowed to one reference month. Nil when none exists.
func GetLatestPlanilha(db *gorm.DB, clienteId int, maquinetaId *int, tipo TipoPlanilha, mesReferencia string) (*Planilha, error) {
	q := planilhaGrainScope(db, clienteId, maquinetaId).Where("tipo = ?", tipo)
	if mesReferencia != "" {
		q = q.Where("mes_referencia = ?", mesReferencia)
	}
	var p Planilha
	err := q.Order("data_upload DESC, id DESC").First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// GetPlanilhaByData returns the canonical daily snapshot for one date:
// the most recently uploaded one wins when several exist.
func GetPlanilhaByData(db *gorm.DB, clienteId int, dataReferencia string, maquinetaId *int) (*Planilha, error) {
	var p Planilha
	err := planilhaGrainScope(db, clienteId, maquinetaId).
		Where("tipo = ? AND data_referencia = ?", TipoPlanilhaDiario, dataReferencia).
		Order("data_upload DESC, id DESC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListMesesDisponiveis returns the distinct reference months with at least
// one snapshot, newest first.
func ListMesesDisponiveis(db *gorm.DB, clienteId int, maquinetaId *int, tipo TipoPlanilha) ([]string, error) {
	var meses []string
	err := planilhaGrainScope(db.Model(&Planilha{}), clienteId, maquinetaId).
		Where("tipo = ?", tipo).
		Distinct("mes_referencia").
		Order("mes_referencia DESC").
		Pluck("mes_referencia", &meses).Error
	return meses, err
}

// ListDiasDisponiveis returns the distinct dates with at least one diario
// snapshot, newest first, optionally narrowed to one month. Duplicate
// uploads for a date collapse to a single entry.
func ListDiasDisponiveis(db *gorm.DB, clienteId int, maquinetaId *int, mesReferencia string) ([]string, error) {
	q := planilhaGrainScope(db.Model(&Planilha{}), clienteId, maquinetaId).
		Where("tipo = ? AND data_referencia IS NOT NULL", TipoPlanilhaDiario)
	if mesReferencia != "" {
		q = q.Where("mes_referencia = ?", mesReferencia)
	}
	var dias []string
	err := q.Distinct("data_referencia").
		Order("data_referencia DESC").
		Pluck("data_referencia", &dias).Error
	return dias, err
}

// DeletePlanilhas removes every snapshot of the grain.
func DeletePlanilhas(db *gorm.DB, clienteId int, maquinetaId *int) error {
	return planilhaGrainScope(db, clienteId, maquinetaId).Delete(&Planilha{}).Error
}

// UpdateDescricaoPlanilha edits the only mutable field of a saved snapshot.
func UpdateDescricaoPlanilha(db *gorm.DB, planilhaId int, descricao *string) error {
	return db.Model(&Planilha{}).Where("id = ?", planilhaId).
		Update("descricao", descricao).Error
}
