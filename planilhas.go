package main

import (
	"net/http"
	"strconv"

	"bitbucket.org/mfsolucoes/vendas_backend/config"
	"bitbucket.org/mfsolucoes/vendas_backend/middlewares"
	"bitbucket.org/mfsolucoes/vendas_backend/models"
	"bitbucket.org/mfsolucoes/vendas_backend/planilha"
	"bitbucket.org/mfsolucoes/vendas_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// clienteIdFromRequest resolves which cliente the request targets: admins
// may act on any cliente via ?cliente_id=, everyone else acts on their own.
func clienteIdFromRequest(c *gin.Context) (int, bool) {
	claim := middlewares.CtxValue(c.Request.Context())
	if claim == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	if claim.IsAdmin() {
		if v := c.Query("cliente_id"); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cliente_id"})
				return 0, false
			}
			return id, true
		}
	}
	return claim.ClienteId, true
}

func maquinetaIdFromQuery(c *gin.Context) (*int, bool) {
	v := c.Query("maquineta_id")
	if v == "" {
		return nil, true
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid maquineta_id"})
		return nil, false
	}
	return &id, true
}

// planilhaFromQuery loads the snapshot addressed by the request: by date for
// daily views (most recent upload wins), by latest-in-month otherwise.
func planilhaFromQuery(c *gin.Context, defaultClienteId int) (*models.Planilha, bool) {
	clienteId, ok := clienteIdFromRequest(c)
	if !ok {
		return nil, false
	}
	if clienteId == 0 {
		clienteId = defaultClienteId
	}
	maquinetaId, ok := maquinetaIdFromQuery(c)
	if !ok {
		return nil, false
	}

	db := config.GetDB()
	var p *models.Planilha
	var err error
	if data := c.Query("data_referencia"); data != "" {
		p, err = models.GetPlanilhaByData(db, clienteId, data, maquinetaId)
	} else {
		tipo := models.TipoPlanilha(c.DefaultQuery("tipo", string(models.TipoPlanilhaMensal)))
		if !tipo.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tipo"})
			return nil, false
		}
		p, err = models.GetLatestPlanilha(db, clienteId, maquinetaId, tipo, c.Query("mes_referencia"))
	}
	if err != nil {
		config.LogError(config.GetLogger(), "planilhas.go", "planilhaFromQuery", "Querying planilha", clienteId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query planilha"})
		return nil, false
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "planilha not found"})
		return nil, false
	}
	return p, true
}

// metricasComOverride computes period metrics and overlays the
// administrator override, going through the Redis cache when available.
func metricasComOverride(p *models.Planilha, taxaCliente *decimal.Decimal) planilha.Metricas {
	db := config.GetDB()
	logger := config.GetLogger()

	cacheKey := utils.MetricasCacheKey(p.ClienteId, p.MaquinetaId, p.Tipo, p.MesReferencia, p.DataReferencia)
	var cached planilha.Metricas
	if ok, err := config.GetRedisObject(cacheKey, &cached); err == nil && ok {
		return cached
	}

	m := planilha.CalcularMetricas(p, taxaCliente)
	vc, err := models.GetValoresCartao(db, p.ClienteId, p.MaquinetaId, p.Tipo, p.MesReferencia, p.DataReferencia)
	if err != nil {
		config.LogError(logger, "planilhas.go", "metricasComOverride", "Loading valores cartao", p.ID, err)
	} else {
		planilha.AplicarValoresCartao(&m, vc)
	}

	if err := config.SetRedisObject(cacheKey, m, utils.GetCacheLifespan()); err != nil {
		config.LogError(logger, "planilhas.go", "metricasComOverride", "Caching metricas", cacheKey, err)
	}
	return m
}

func getPlanilhaHandler() gin.HandlerFunc {
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

		taxaCliente, err := models.GetTaxaCliente(config.GetDB(), p.ClienteId)
		if err != nil {
			config.LogError(config.GetLogger(), "planilhas.go", "getPlanilhaHandler", "Loading cliente fee rate", p.ClienteId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cliente"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"planilha": p,
			"metricas": metricasComOverride(p, taxaCliente),
		})
	}
}

func listMesesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clienteId, ok := clienteIdFromRequest(c)
		if !ok {
			return
		}
		maquinetaId, ok := maquinetaIdFromQuery(c)
		if !ok {
			return
		}
		tipo := models.TipoPlanilha(c.DefaultQuery("tipo", string(models.TipoPlanilhaMensal)))
		if !tipo.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tipo"})
			return
		}

		meses, err := models.ListMesesDisponiveis(config.GetDB(), clienteId, maquinetaId, tipo)
		if err != nil {
			config.LogError(config.GetLogger(), "planilhas.go", "listMesesHandler", "Listing meses", clienteId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list meses"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"meses": meses})
	}
}

func listDiasHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clienteId, ok := clienteIdFromRequest(c)
		if !ok {
			return
		}
		maquinetaId, ok := maquinetaIdFromQuery(c)
		if !ok {
			return
		}

		dias, err := models.ListDiasDisponiveis(config.GetDB(), clienteId, maquinetaId, c.Query("mes_referencia"))
		if err != nil {
			config.LogError(config.GetLogger(), "planilhas.go", "listDiasHandler", "Listing dias", clienteId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list dias"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"dias": dias})
	}
}

type descricaoRequest struct {
	PlanilhaId int     `json:"planilha_id" validate:"required"`
	Descricao  *string `json:"descricao" validate:"omitempty,max=500"`
}

func updateDescricaoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claim := middlewares.CtxValue(c.Request.Context())
		if claim == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req descricaoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := utils.ValidateStruct(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := models.UpdateDescricaoPlanilha(config.GetDB(), req.PlanilhaId, req.Descricao); err != nil {
			config.LogError(config.GetLogger(), "planilhas.go", "updateDescricaoHandler", "Updating descricao", req.PlanilhaId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update descricao"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func deletePlanilhasHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claim := middlewares.CtxValue(c.Request.Context())
		if claim == nil || !claim.IsAdmin() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		clienteId, ok := clienteIdFromRequest(c)
		if !ok {
			return
		}
		maquinetaId, ok := maquinetaIdFromQuery(c)
		if !ok {
			return
		}

		if err := models.DeletePlanilhas(config.GetDB(), clienteId, maquinetaId); err != nil {
			config.LogError(config.GetLogger(), "planilhas.go", "deletePlanilhasHandler", "Deleting planilhas", clienteId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete planilhas"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

type valoresCartaoRequest struct {
	ClienteId      int     `json:"cliente_id" validate:"required"`
	MaquinetaId    *int    `json:"maquineta_id"`
	Tipo           string  `json:"tipo" validate:"required,oneof=mensal diario"`
	MesReferencia  string  `json:"mes_referencia" validate:"required,len=7"`
	DataReferencia *string `json:"data_referencia" validate:"omitempty,len=10"`

	QuantidadeVendas *int             `json:"quantidade_vendas"`
	ValorBruto       *decimal.Decimal `json:"valor_bruto"`
	ValorTaxa        *decimal.Decimal `json:"valor_taxa"`
	ValorLiquido     *decimal.Decimal `json:"valor_liquido"`
}

func setValoresCartaoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		claim := middlewares.CtxValue(c.Request.Context())
		if claim == nil || !claim.IsAdmin() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req valoresCartaoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := utils.ValidateStruct(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		vc := &models.ValoresCartaoPlanilha{
			ClienteId:        req.ClienteId,
			MaquinetaId:      req.MaquinetaId,
			Tipo:             models.TipoPlanilha(req.Tipo),
			MesReferencia:    req.MesReferencia,
			DataReferencia:   req.DataReferencia,
			QuantidadeVendas: req.QuantidadeVendas,
			ValorBruto:       req.ValorBruto,
			ValorTaxa:        req.ValorTaxa,
			ValorLiquido:     req.ValorLiquido,
		}
		if err := models.SetValoresCartao(config.GetDB(), vc); err != nil {
			config.LogError(logger, "planilhas.go", "setValoresCartaoHandler", "Saving valores cartao", req.ClienteId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save valores"})
			return
		}

		utils.ClearMetricasCache(vc.ClienteId, vc.MaquinetaId, vc.Tipo, vc.MesReferencia, vc.DataReferencia)
		if err := config.PublishEvent(c.Request.Context(), config.EventMessage{
			Event:          models.EventValoresCartaoAtualizados,
			ClienteId:      vc.ClienteId,
			MaquinetaId:    vc.MaquinetaId,
			Tipo:           string(vc.Tipo),
			MesReferencia:  vc.MesReferencia,
			DataReferencia: vc.DataReferencia,
			ReferenciaId:   vc.ID,
		}); err != nil {
			config.LogError(logger, "planilhas.go", "setValoresCartaoHandler", "Publishing valores-cartao-atualizados", vc.ID, err)
		}
		c.JSON(http.StatusOK, gin.H{"valores_cartao": vc})
	}
}

func deleteValoresCartaoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		claim := middlewares.CtxValue(c.Request.Context())
		if claim == nil || !claim.IsAdmin() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		clienteId, ok := clienteIdFromRequest(c)
		if !ok {
			return
		}
		maquinetaId, ok := maquinetaIdFromQuery(c)
		if !ok {
			return
		}
		tipo := models.TipoPlanilha(c.DefaultQuery("tipo", string(models.TipoPlanilhaMensal)))
		mes := c.Query("mes_referencia")
		var data *string
		if v := c.Query("data_referencia"); v != "" {
			data = &v
		}

		if err := models.DeleteValoresCartao(config.GetDB(), clienteId, maquinetaId, tipo, mes, data); err != nil {
			config.LogError(logger, "planilhas.go", "deleteValoresCartaoHandler", "Deleting valores cartao", clienteId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete valores"})
			return
		}

		utils.ClearMetricasCache(clienteId, maquinetaId, tipo, mes, data)
		if err := config.PublishEvent(c.Request.Context(), config.EventMessage{
			Event:          models.EventValoresCartaoAtualizados,
			ClienteId:      clienteId,
			MaquinetaId:    maquinetaId,
			Tipo:           string(tipo),
			MesReferencia:  mes,
			DataReferencia: data,
		}); err != nil {
			config.LogError(logger, "planilhas.go", "deleteValoresCartaoHandler", "Publishing valores-cartao-atualizados", clienteId, err)
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func listRepassesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clienteId, ok := clienteIdFromRequest(c)
		if !ok {
			return
		}

		repasses, err := models.ListRepasses(config.GetDB(), clienteId)
		if err != nil {
			config.LogError(config.GetLogger(), "planilhas.go", "listRepassesHandler", "Listing repasses", clienteId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list repasses"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"repasses": repasses})
	}
}
