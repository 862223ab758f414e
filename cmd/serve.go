package cmd

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"go-invoice-webapp/internal/config"
	"go-invoice-webapp/internal/handlers"
	"go-invoice-webapp/internal/middleware"
	"go-invoice-webapp/internal/models"
	"go-invoice-webapp/internal/repository"
	"go-invoice-webapp/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the invoice web application server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer() error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(
		&models.Invoice{},
		&models.SenderAddress{},
		&models.ClientAddress{},
		&models.InvoiceItem{},
		&models.User{},
		&models.Session{},
	); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}

	invoiceRepo := repository.NewInvoiceRepository(db)
	barcodeService := services.NewBarcodeService()
	pdfService := services.NewPDFService(&cfg.Invoice, barcodeService)

	invoiceHandler := handlers.NewInvoiceHandler(invoiceRepo, pdfService)
	authHandler := handlers.NewAuthHandler(db.DB, cfg)
	authHandler.StartSessionCleanup()

	monitor := middleware.NewPerformanceMonitor(cfg.Database.SlowQueryThreshold)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(monitor.PerformanceMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.RequestSizeLimitMiddleware(1 << 20))

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		if err := db.Ping(); err != nil {
			status = "unhealthy"
		}
		snapshot := monitor.Snapshot()
		snapshot["status"] = status
		snapshot["timestamp"] = time.Now()
		c.JSON(http.StatusOK, snapshot)
	})

	router.POST("/api/login", authHandler.Login)
	router.POST("/api/logout", authHandler.Logout)

	api := router.Group("/api", authHandler.AuthMiddleware())
	{
		api.GET("/invoices", invoiceHandler.ListInvoices)
		api.POST("/invoices", invoiceHandler.CreateInvoice)
		api.GET("/invoices/stats", invoiceHandler.GetInvoiceStats)
		api.GET("/invoices/:number", invoiceHandler.GetInvoice)
		api.PUT("/invoices/:number", invoiceHandler.UpdateInvoice)
		api.DELETE("/invoices/:number", invoiceHandler.DeleteInvoice)
		api.POST("/invoices/:number/paid", invoiceHandler.MarkInvoicePaid)
		api.GET("/invoices/:number/pdf", invoiceHandler.DownloadInvoicePDF)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting invoice web application on %s", addr)
	return router.Run(addr)
}
