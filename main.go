package main

import (
	"log"
	"os"

	"counselgo/internal/api"
	"counselgo/internal/config"
	"counselgo/internal/redis"
	"counselgo/internal/service/ai"
	"counselgo/internal/service/counselor"
	"counselgo/internal/service/courses"
	"counselgo/internal/service/record"
	"counselgo/internal/storage"
	"counselgo/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("COUNSELGO_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("COUNSELGO_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Create necessary tables: user_sessions, chat_messages
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// Redis backs the cross-instance session lease; without it the service
	// still serializes correctly within a single process.
	rdb, err := redis.NewClient(cfg)
	if err != nil {
		log.Printf("redis unavailable, session leases are process-local: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	provider := cfg.BasicConfig.Provider
	if provider == "" {
		provider = "openai"
	}
	generator, err := ai.NewGenerator(cfg, provider)
	if err != nil {
		log.Fatalf("init text generator: %v", err)
	}

	var searcher counselor.ResumeSearcher
	if embedder, err := ai.NewEmbedder(cfg); err != nil {
		log.Printf("resume grounding disabled: %v", err)
	} else if indexer, err := ai.NewIndexer(embedder); err != nil {
		log.Printf("resume grounding disabled: %v", err)
	} else {
		searcher = indexer
	}
	assembler := counselor.NewContextAssembler(searcher)

	store := record.NewStore(db)
	lookup := courses.NewService(cfg)
	responder := counselor.NewResponder(generator, assembler)
	synthesizer := counselor.NewSynthesizer(generator, assembler, lookup)
	orchestrator := counselor.NewOrchestrator(store, responder, synthesizer)

	fileBase := cfg.BasicConfig.FileBaseDir
	if fileBase == "" {
		fileBase = "./data/resumes"
	}
	handlers := api.NewHandler(orchestrator, store, worker.NewManager(rdb), fileBase)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
