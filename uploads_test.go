package main

import (
	"errors"
	"net/http"
	"testing"

	"bitbucket.org/mfsolucoes/vendas_backend/models"
	"github.com/xuri/excelize/v2"
)

func xlsxBytes(t *testing.T, cells map[string]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for ref, v := range cells {
		if err := f.SetCellValue(sheet, ref, v); err != nil {
			t.Fatalf("set cell %s: %v", ref, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	return buf.Bytes()
}

func TestLerPrimeiraAba_KeepsUnnamedTrailingColumns(t *testing.T) {
	// B1 is blank, so the header row comes back one cell short of the data
	// row beneath it. The unnamed column still gets a placeholder header and
	// its value survives.
	raw := xlsxBytes(t, map[string]string{
		"A1": "Data",
		"A2": "01/05/2024",
		"B2": "150,00",
	})

	cabecalhos, linhas, err := lerPrimeiraAba(raw)
	if err != nil {
		t.Fatalf("lerPrimeiraAba: %v", err)
	}
	if len(cabecalhos) != 2 || cabecalhos[0] != "Data" || cabecalhos[1] != "Coluna 2" {
		t.Fatalf("expected headers [Data, Coluna 2], got %v", cabecalhos)
	}
	if len(linhas) != 1 {
		t.Fatalf("expected 1 data row, got %d", len(linhas))
	}
	if linhas[0]["Coluna 2"] != "150,00" {
		t.Fatalf("unnamed column lost its value: %v", linhas[0])
	}
	if linhas[0]["Data"] != "01/05/2024" {
		t.Fatalf("named column value wrong: %v", linhas[0])
	}
}

func TestLerPrimeiraAba_PadsShortDataRows(t *testing.T) {
	raw := xlsxBytes(t, map[string]string{
		"A1": "Data",
		"B1": "Valor Bruto",
		"A2": "01/05/2024",
	})

	cabecalhos, linhas, err := lerPrimeiraAba(raw)
	if err != nil {
		t.Fatalf("lerPrimeiraAba: %v", err)
	}
	if len(cabecalhos) != 2 {
		t.Fatalf("expected 2 headers, got %v", cabecalhos)
	}
	if v, ok := linhas[0]["Valor Bruto"]; !ok || v != "" {
		t.Fatalf("short data row must be padded with empty cells: %v", linhas[0])
	}
}

func TestSaveErrorStatus(t *testing.T) {
	if got := saveErrorStatus(models.ErrMesReferenciaInvalido); got != http.StatusBadRequest {
		t.Errorf("mes mismatch expected 400, got %d", got)
	}
	if got := saveErrorStatus(models.ErrDataReferenciaObrigatoria); got != http.StatusBadRequest {
		t.Errorf("missing data_referencia expected 400, got %d", got)
	}
	if got := saveErrorStatus(errors.New("deadlock")); got != http.StatusInternalServerError {
		t.Errorf("unexpected failure expected 500, got %d", got)
	}
}
