package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"bitbucket.org/mfsolucoes/vendas_backend/config"
	"bitbucket.org/mfsolucoes/vendas_backend/models"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN_MINUTES"))
	if err != nil {
		lifespan = 5
	}
	return time.Duration(lifespan) * time.Minute
}

// MetricasCacheKey identifies the cached metrics of one period grain.
func MetricasCacheKey(clienteId int, maquinetaId *int, tipo models.TipoPlanilha, mesReferencia string, dataReferencia *string) string {
	return fmt.Sprintf("Metricas:%d:%d:%s:%s:%s",
		clienteId,
		DereferencePtr(maquinetaId, 0),
		tipo,
		mesReferencia,
		DereferencePtr(dataReferencia, "-"),
	)
}

// ClearMetricasCache drops the cached metrics for a period, called whenever
// a snapshot is saved or an override changes.
func ClearMetricasCache(clienteId int, maquinetaId *int, tipo models.TipoPlanilha, mesReferencia string, dataReferencia *string) error {
	return config.RemoveRedisKey(MetricasCacheKey(clienteId, maquinetaId, tipo, mesReferencia, dataReferencia))
}
