package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/huzaifa003/docuchat/internal/api"
	"github.com/huzaifa003/docuchat/internal/blob"
	"github.com/huzaifa003/docuchat/internal/config"
	"github.com/huzaifa003/docuchat/internal/db"
	"github.com/huzaifa003/docuchat/internal/openai"
	"github.com/huzaifa003/docuchat/internal/repository"
	"github.com/huzaifa003/docuchat/internal/services"
	"github.com/huzaifa003/docuchat/internal/telemetry"
)

func main() {
	log.Println("🚀 Starting DocuChat...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Initialize Jaeger tracing first so all operations are traced
	jaegerShutdown, err := telemetry.InitJaeger("docuchat", cfg.JaegerEndpoint)
	if err != nil {
		log.Printf("⚠️  Failed to initialize Jaeger: %v (continuing without tracing)", err)
		jaegerShutdown = func(ctx context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Printf("⚠️  Failed to shutdown Jaeger: %v", err)
		}
	}()

	// Initialize GORM database
	database, err := db.NewGorm(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Blob store for uploaded PDFs and rendered page images
	blobStore, err := blob.NewStore(cfg.MediaRoot)
	if err != nil {
		log.Fatalf("❌ Failed to initialize media root: %v", err)
	}

	// OpenAI client, injected everywhere a model call is made
	openaiClient := openai.NewClient(
		cfg.OpenAIAPIKey,
		cfg.OpenAIEmbeddingModel,
		cfg.OpenAIVisionModel,
		cfg.OpenAILLMModel,
	)
	log.Println("✓ OpenAI client initialized")

	// Repositories
	docRepo := repository.NewDocumentRepository(database.DB)
	convoRepo := repository.NewConversationRepository(database.DB)
	vectorRepo := repository.NewVectorRepository(database.DB, openaiClient)

	// Pipelines
	rasterizer := services.NewFitzRasterizer()
	extractor := services.NewExtractor(openaiClient)
	ingestion := services.NewIngestionPipeline(rasterizer, extractor, vectorRepo, cfg.MediaRoot, cfg.RasterDPI, cfg.ExtractionWorkers)
	retriever := services.NewRetriever(docRepo, vectorRepo)
	synthesizer := services.NewSynthesizer(openaiClient)
	conversation := services.NewConversationPipeline(convoRepo, docRepo, retriever, synthesizer)

	// Handlers and routes
	handler := api.NewHandler(docRepo, convoRepo, blobStore, vectorRepo, ingestion, conversation)
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  120 * time.Second, // uploads run the whole ingestion pipeline
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://%s", addr)
		log.Printf("📚 API Endpoints:")
		log.Printf("   POST   /api/documents                     - Upload + ingest PDF")
		log.Printf("   GET    /api/documents                     - List documents")
		log.Printf("   DELETE /api/documents/:id                 - Delete document + index entries")
		log.Printf("   POST   /api/conversations                 - Create conversation")
		log.Printf("   GET    /api/conversations                 - List conversations")
		log.Printf("   GET    /api/conversations/:id             - Conversation + messages")
		log.Printf("   POST   /api/conversations/:id/messages    - Ask a question")
		log.Println()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	log.Println("✓ Server shutdown complete")
}
