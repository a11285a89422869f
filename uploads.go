package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"bitbucket.org/mfsolucoes/vendas_backend/config"
	"bitbucket.org/mfsolucoes/vendas_backend/middlewares"
	"bitbucket.org/mfsolucoes/vendas_backend/models"
	"bitbucket.org/mfsolucoes/vendas_backend/planilha"
	"bitbucket.org/mfsolucoes/vendas_backend/utils"
	"bitbucket.org/mfsolucoes/vendas_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const maxUploadSizeBytes int64 = 10 * 1024 * 1024

type uploadPlanilhaRequest struct {
	Tipo           string  `form:"tipo" validate:"required,oneof=mensal diario"`
	MesReferencia  string  `form:"mes_referencia" validate:"required,len=7"`
	DataReferencia *string `form:"data_referencia" validate:"omitempty,len=10"`
	MaquinetaId    *int    `form:"maquineta_id"`
	Descricao      *string `form:"descricao" validate:"omitempty,max=500"`
}

func uploadPlanilhaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		claim := middlewares.CtxValue(c.Request.Context())
		if claim == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req uploadPlanilhaRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := utils.ValidateStruct(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tipo := models.TipoPlanilha(req.Tipo)
		if tipo == models.TipoPlanilhaDiario && req.DataReferencia == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "data_referencia is required for tipo=diario"})
			return
		}

		fileHeader, err := c.FormFile("arquivo")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "arquivo is required"})
			return
		}
		if fileHeader.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 10MB limit"})
			return
		}
		if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".xlsx" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type, expected .xlsx"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
			return
		}
		defer file.Close()
		raw, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
			return
		}

		cabecalhos, linhas, err := lerPrimeiraAba(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		db := config.GetDB()
		clienteId := claim.ClienteId

		taxaCliente, err := models.GetTaxaCliente(db, clienteId)
		if err != nil {
			config.LogError(logger, "uploads.go", "uploadPlanilhaHandler", "Loading cliente fee rate", clienteId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cliente"})
			return
		}

		vendas, ignoradas := planilha.MontarVendas(logger, cabecalhos, linhas, taxaCliente)

		p := &models.Planilha{
			ClienteId:       clienteId,
			MaquinetaId:     req.MaquinetaId,
			Tipo:            tipo,
			MesReferencia:   req.MesReferencia,
			DataReferencia:  req.DataReferencia,
			NomeArquivo:     fileHeader.Filename,
			DataUpload:      time.Now().UTC(),
			Descricao:       req.Descricao,
			Cabecalhos:      cabecalhos,
			Linhas:          linhas,
			Vendas:          vendas,
			LinhasIgnoradas: ignoradas,
		}

		// Blob storage is best effort: a missing original never blocks the
		// snapshot save, it only disables exact re-download.
		objectKey := path.Join(fmt.Sprint(clienteId), "planilhas", uuid.New().String()+".xlsx")
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		if err := utils.SaveArquivoOriginal(ctx, objectKey,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", raw); err != nil {
			config.LogError(logger, "uploads.go", "uploadPlanilhaHandler", "Saving original file to GCS", objectKey, err)
		} else {
			p.ArquivoObjectKey = &objectKey
		}

		if err := models.SavePlanilha(db, p); err != nil {
			if status := saveErrorStatus(err); status == http.StatusBadRequest {
				c.JSON(status, gin.H{"error": err.Error()})
				return
			}
			config.LogError(logger, "uploads.go", "uploadPlanilhaHandler", "Saving planilha", p.ClienteId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save planilha"})
			return
		}

		utils.ClearMetricasCache(p.ClienteId, p.MaquinetaId, p.Tipo, p.MesReferencia, p.DataReferencia)

		if err := config.PublishEvent(c.Request.Context(), config.EventMessage{
			Event:          models.EventPlanilhaSalva,
			ClienteId:      p.ClienteId,
			MaquinetaId:    p.MaquinetaId,
			Tipo:           string(p.Tipo),
			MesReferencia:  p.MesReferencia,
			DataReferencia: p.DataReferencia,
			ReferenciaId:   p.ID,
			CorrelationId:  uuid.NewString(),
		}); err != nil {
			config.LogError(logger, "uploads.go", "uploadPlanilhaHandler", "Publishing planilha-salva", p.ID, err)
		}

		metricas := metricasComOverride(p, taxaCliente)

		// Reconciliation failures are logged and swallowed: the snapshot is
		// already durably saved and must stay that way.
		cliente, err := models.GetCliente(db, clienteId)
		if err == nil && cliente != nil {
			vc, vcErr := models.GetValoresCartao(db, p.ClienteId, p.MaquinetaId, p.Tipo, p.MesReferencia, p.DataReferencia)
			if vcErr != nil {
				config.LogError(logger, "uploads.go", "uploadPlanilhaHandler", "Loading valores cartao", p.ID, vcErr)
				vc = nil
			}
			base := planilha.CalcularMetricas(p, taxaCliente)
			if _, _, rerr := workflow.ProcessRepasseWorkflow(
				models.GormRepasseStore{DB: db}, logger, p, base, vc, cliente.Nome); rerr != nil {
				config.LogError(logger, "uploads.go", "uploadPlanilhaHandler", "Reconciling repasse", p.ID, rerr)
			}
		} else if err != nil {
			config.LogError(logger, "uploads.go", "uploadPlanilhaHandler", "Loading cliente", clienteId, err)
		}

		c.JSON(http.StatusOK, gin.H{
			"planilha":         p,
			"metricas":         metricas,
			"linhas_ignoradas": ignoradas,
		})
	}
}

// saveErrorStatus classifies a SavePlanilha failure: validation sentinels are
// the caller's fault, everything else is a persistence failure.
func saveErrorStatus(err error) int {
	if errors.Is(err, models.ErrMesReferenciaInvalido) || errors.Is(err, models.ErrDataReferenciaObrigatoria) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// lerPrimeiraAba reads headers and data rows from the first sheet only.
// The first row is the header row; every following row is data. No row or
// column is filtered before the column mapper stage.
func lerPrimeiraAba(raw []byte) ([]string, []map[string]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("unreadable spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("unreadable spreadsheet")
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("spreadsheet is empty")
	}

	// GetRows trims trailing empty cells per row, so a header row with blank
	// trailing headers comes back shorter than the data beneath it. Pad the
	// header to the widest row first; unnamed columns must keep their data.
	maxColunas := 0
	for _, row := range rows {
		if len(row) > maxColunas {
			maxColunas = len(row)
		}
	}
	linhaCabecalho := rows[0]
	for len(linhaCabecalho) < maxColunas {
		linhaCabecalho = append(linhaCabecalho, "")
	}

	cabecalhos := planilha.PreencherCabecalhos(linhaCabecalho)

	linhas := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		linha := make(map[string]string, len(cabecalhos))
		for i, header := range cabecalhos {
			if i < len(row) {
				linha[header] = row[i]
			} else {
				linha[header] = ""
			}
		}
		linhas = append(linhas, linha)
	}
	return cabecalhos, linhas, nil
}

func downloadArquivoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claim := middlewares.CtxValue(c.Request.Context())
		if claim == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		p, ok := planilhaFromQuery(c, claim.ClienteId)
		if !ok {
			return
		}
		if p.ArquivoObjectKey == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "original file not available"})
			return
		}

		data, err := utils.ReadArquivoOriginal(c.Request.Context(), *p.ArquivoObjectKey)
		if err != nil {
			config.LogError(config.GetLogger(), "uploads.go", "downloadArquivoHandler", "Reading original file", *p.ArquivoObjectKey, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read original file"})
			return
		}

		c.Header("Content-Disposition", "attachment; filename="+p.NomeArquivo)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	}
}
