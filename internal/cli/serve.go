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

	"trivia-arcade/internal/app"
	"trivia-arcade/internal/auth"
	"trivia-arcade/internal/config"
	"trivia-arcade/internal/domain"
	"trivia-arcade/internal/game"
	"trivia-arcade/internal/infra/memory"
	infrapg "trivia-arcade/internal/infra/postgres"
	infraredis "trivia-arcade/internal/infra/redis"
	"trivia-arcade/internal/question"
	transport "trivia-arcade/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the trivia game server",
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

	var generator game.Generator
	if cfg.Gemini.APIKey != "" {
		generator = question.NewGeminiGenerator(question.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
			HTTPClient: &http.Client{
				Timeout: config.Duration(cfg.Gemini.Timeout, 60*time.Second),
			},
		})
	} else {
		log.Printf("no gemini api key configured, serving canned questions")
		generator = memory.NewStaticGenerator(sampleQuestions())
	}

	deps := game.Deps{
		Generator:     generator,
		AnswerDwell:   config.Duration(cfg.Game.AnswerDwell, 0),
		LevelUpBanner: config.Duration(cfg.Game.LevelUpBanner, 0),
	}

	var boards app.LeaderboardReader
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		store := infrapg.NewStore(pool)
		deps.Catalog = store
		deps.Scores = store
		deps.Ratings = store
		deps.Useful = store
		boards = store
	} else {
		catalog := memory.NewCatalog()
		leaderboard := memory.NewLeaderboard()
		deps.Catalog = catalog
		deps.Scores = leaderboard
		deps.Ratings = catalog
		deps.Useful = catalog
		boards = leaderboard
	}

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		deps.Daily = infraredis.NewDailyStore(redisClient, generator)
		deps.Flags = infraredis.NewFlagStore(redisClient)
	} else {
		deps.Daily = memory.NewDailyStore(generator)
		deps.Flags = memory.NewFlagStore()
	}

	service := app.NewGameService(memory.NewSessionStore(deps), boards)
	verifier := auth.NewTokenVerifier(cfg.Auth.JWTSecret)
	wsHandler := transport.NewWSHandler(service, verifier)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/leaderboard", transport.NewLeaderboardHandler(service))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia arcade on :%s", finalPort)
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

// sampleQuestions backs the canned generator used without an API key.
func sampleQuestions() []domain.TriviaQuestion {
	return []domain.TriviaQuestion{
		{
			Question: "Which planet has the most moons?",
			Options:  []string{"Saturn", "Jupiter", "Uranus", "Neptune"},
			Answer:   "Saturn",
		},
		{
			Question: "What year did the World Wide Web become publicly available?",
			Options:  []string{"1989", "1991", "1993", "1995"},
			Answer:   "1991",
		},
		{
			Question: "Which element has the chemical symbol 'Au'?",
			Options:  []string{"Silver", "Gold", "Aluminium", "Argon"},
			Answer:   "Gold",
		},
		{
			Question: "Who painted 'The Starry Night'?",
			Options:  []string{"Claude Monet", "Pablo Picasso", "Vincent van Gogh", "Salvador Dali"},
			Answer:   "Vincent van Gogh",
		},
	}
}
