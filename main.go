package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/genai"

	"github/itish2003/notevault/config"
	"github/itish2003/notevault/controller"
	"github/itish2003/notevault/embedding"
	"github/itish2003/notevault/generation"
	"github/itish2003/notevault/services"
	"github/itish2003/notevault/storage"
	"github/itish2003/notevault/vectorstore/chroma"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("FATAL: Failed to create data directory %s: %v", dir, err)
		}
	}
	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("FATAL: Failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Warning: Failed to close database: %v", err)
		}
	}()

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}
	generateClient := &http.Client{
		Timeout: time.Duration(cfg.Generation.TimeoutSecs) * time.Second,
	}

	var geminiClient *genai.Client
	if cfg.Embedding.Provider == "gemini" || cfg.Generation.Provider == "gemini" {
		if cfg.Gemini.APIKey == "" {
			log.Fatal("FATAL: GEMINI_API_KEY must be set when a gemini provider is selected.")
		}
		geminiClient, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to create Gemini client: %v", err)
		}
		log.Println("Successfully connected to Google Gemini.")
	}

	var embedder embedding.Embedder
	switch cfg.Embedding.Provider {
	case "gemini":
		embedder = embedding.NewGemini(geminiClient, cfg.Gemini.EmbedModel)
	default:
		embedder = embedding.NewOllama(httpClient, cfg.Ollama.URL, cfg.Ollama.EmbedModel)
	}

	var generator generation.Generator
	switch cfg.Generation.Provider {
	case "gemini":
		generator = generation.NewGemini(geminiClient, cfg.Gemini.GenerateModel)
	default:
		generator = generation.NewOllama(generateClient, cfg.Ollama.URL, cfg.Ollama.GenerateModel)
	}

	store, err := chroma.Connect(ctx, chroma.Config{
		URL:             cfg.Chroma.URL,
		Collection:      cfg.Chroma.Collection,
		ConnectAttempts: cfg.Chroma.ConnectAttempts,
		ConnectDelay:    time.Duration(cfg.Chroma.ConnectDelaySecs) * time.Second,
	}, embedder)
	if err != nil {
		log.Fatalf("FATAL: Failed to connect to chroma: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Warning: Failed to close chroma client: %v", err)
		}
	}()

	engine, err := services.NewEngine(store, generator, cfg.Chunking, cfg.Retrieval)
	if err != nil {
		log.Fatalf("FATAL: Invalid engine configuration: %v", err)
	}

	documentStore := storage.NewDocumentStore(db)
	documents := services.NewDocuments(documentStore, engine)
	chat := services.NewChat(storage.NewChatStore(db), engine)

	if cfg.Importer.Dir != "" {
		importer := services.NewImporter(documents, documentStore, cfg.Importer.Dir)
		go func() {
			importer.Scan(ctx)
			importer.Watch(ctx)
		}()
	}

	documentsController := controller.NewDocumentsController(documents, engine)
	chatController := controller.NewChatController(chat)

	router := gin.Default()

	// CORS middleware so browser frontends can talk to the API directly.
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "NoteVault API",
			"version": "1.0.0",
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/stats", documentsController.Stats)

		docs := apiV1.Group("/documents")
		{
			docs.POST("", documentsController.CreateDocument)
			docs.GET("", documentsController.ListDocuments)
			docs.GET("/tags", documentsController.ListTags)
			docs.GET("/search/semantic", documentsController.SemanticSearch)
			docs.POST("/reindex", documentsController.Reindex)
			docs.GET("/:id", documentsController.GetDocument)
			docs.PUT("/:id", documentsController.UpdateDocument)
			docs.DELETE("/:id", documentsController.DeleteDocument)
			docs.GET("/:id/search", documentsController.SearchWithinDocument)
		}

		chatRoutes := apiV1.Group("/chat")
		{
			chatRoutes.POST("/query", chatController.Query)
			chatRoutes.GET("/history", chatController.History)
			chatRoutes.POST("/sessions", chatController.NewSession)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("NoteVault server starting on http://%s", addr)
		log.Printf("Health check available at: http://%s/health", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: Server shutdown was not clean: %v", err)
	}
	log.Println("Server stopped.")
}
