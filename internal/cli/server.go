package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-arena-service/internal/app"
	"quiz-arena-service/internal/config"
	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/infra/memory"
	pgstore "quiz-arena-service/internal/infra/postgres"
	redisstore "quiz-arena-service/internal/infra/redis"
	transport "quiz-arena-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz-room server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var source memory.QuestionSource = memory.NewStaticQuestionBank(sampleQuestionBanks())
	if pool != nil {
		source = pgstore.NewQuestionBank(pool)
	}

	questionTTL := config.TTLDuration(cfg.Quiz.QuestionTTL, 10*time.Minute)
	var provider app.QuestionProvider
	if redisClient != nil {
		cache := redisstore.NewQuestionCache(redisClient, source, questionTTL)
		// Redis already caches; the in-process layer stays a pass-through.
		provider = memory.NewQuestionProvider(cache, 0)
	} else {
		provider = memory.NewQuestionProvider(source, questionTTL)
	}

	var results app.ResultPersister
	switch {
	case pool != nil:
		results = pgstore.NewResultStore(pool)
	case redisClient != nil:
		results = redisstore.NewResultStore(redisClient)
	default:
		results = memory.NewResultStore()
	}

	revealDelay := config.TTLDuration(cfg.Quiz.RevealDelay, 3*time.Second)
	hub := transport.NewHub()
	engine := app.NewEngineWithTiming(app.NewRegistry(), provider, results, hub, time.Second, revealDelay)
	wsHandler := transport.NewWSHandler(engine, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz-arena service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestionBanks provides a minimal per-domain question set; swap in the
// Postgres-backed bank for production content.
func sampleQuestionBanks() map[string][]domain.Question {
	return map[string][]domain.Question{
		"Quantitative": {
			{Text: "What is 12 * 12?", Options: []string{"124", "144", "154", "164"}, Correct: 1},
			{Text: "What is the square root of 81?", Options: []string{"7", "8", "9", "11"}, Correct: 2},
			{Text: "If x + 3 = 10, what is x?", Options: []string{"6", "7", "8", "13"}, Correct: 1},
		},
		"Verbal": {
			{Text: "Pick the synonym of 'rapid'.", Options: []string{"slow", "swift", "steady", "late"}, Correct: 1},
			{Text: "Pick the antonym of 'scarce'.", Options: []string{"rare", "sparse", "abundant", "thin"}, Correct: 2},
		},
		"General Knowledge": {
			{Text: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Mars", "Jupiter", "Mercury"}, Correct: 1},
			{Text: "How many continents are there?", Options: []string{"five", "six", "seven", "eight"}, Correct: 2},
		},
	}
}
