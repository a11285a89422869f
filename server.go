package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mfsolucoes/vendas_backend/config"
	"bitbucket.org/mfsolucoes/vendas_backend/middlewares"
	"bitbucket.org/mfsolucoes/vendas_backend/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const defaultPort = "8080"

func newRouter() *gin.Engine {
	if strings.EqualFold(os.Getenv("GO_ENV"), "production") {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))
	r.Use(middlewares.AuthMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	api := r.Group("/api")
	{
		api.POST("/planilhas/upload", uploadPlanilhaHandler())
		api.GET("/planilhas", getPlanilhaHandler())
		api.GET("/planilhas/meses", listMesesHandler())
		api.GET("/planilhas/dias", listDiasHandler())
		api.GET("/planilhas/arquivo", downloadArquivoHandler())
		api.PATCH("/planilhas/descricao", updateDescricaoHandler())
		api.DELETE("/planilhas", deletePlanilhasHandler())

		api.PUT("/planilhas/valores-cartao", setValoresCartaoHandler())
		api.DELETE("/planilhas/valores-cartao", deleteValoresCartaoHandler())

		api.GET("/repasses", listRepassesHandler())
	}
	return r
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: newRouter(),
	}

	// Listen first, connect after: the platform health check must pass
	// before the first DB connection attempt resolves.
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	config.ConnectDatabaseWithRetry()
	if err := models.Migrate(config.GetDB()); err != nil {
		log.Printf("migration failed: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
