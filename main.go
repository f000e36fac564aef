package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/spf13/afero"

	"movieverse/config"
	"movieverse/handlers"
	"movieverse/internal/database"
	"movieverse/internal/localcache"
	"movieverse/internal/logging"
	"movieverse/services/identity"
	"movieverse/services/library"
	"movieverse/services/recommend"
	"movieverse/services/tmdb"
	"movieverse/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] config: %v", err)
	}

	logCloser := logging.Setup(logging.Options{
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer logCloser.Close()

	db, err := database.NewDB(database.Config{DatabasePath: cfg.Database.Path})
	if err != nil {
		log.Fatalf("[main] database: %v", err)
	}
	defer db.Close()

	cache, err := localcache.New(afero.NewOsFs(), cfg.Cache.Path)
	if err != nil {
		log.Fatalf("[main] device cache: %v", err)
	}

	tmdbClient := tmdb.NewClient(cfg.TMDB.BaseURL, cfg.TMDB.APIKey)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	warmGenres(ctx, tmdbClient)

	provider := identity.NewProvider(db.Users, cfg.Auth.Secret, cfg.Auth.SessionTTL)

	store := library.NewStore(db.Watchlist, db.Ratings, cache)
	if err := store.Start(ctx, provider); err != nil {
		log.Printf("[main] initial library load: %v", err)
	}
	defer store.Close()

	recommender := recommend.NewService(tmdbClient, db.Profiles, store)

	router := utils.NewRouter()
	handlers.NewAuthHandler(provider).Register(router)
	handlers.NewCatalogHandler(tmdbClient).Register(router)
	handlers.NewLibraryHandler(store).Register(router)
	handlers.NewProfileHandler(db.Profiles, provider).Register(router)
	handlers.NewRecommendHandler(recommender, provider).Register(router)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Printf("[main] listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[main] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] shutdown: %v", err)
	}
}

// warmGenres primes the genre cache so the first discovery requests do
// not pay the lookup. Startup continues even when TMDB is unreachable.
func warmGenres(ctx context.Context, client *tmdb.Client) {
	err := retry.Do(
		func() error {
			if _, err := client.MovieGenres(ctx); err != nil {
				return err
			}
			_, err := client.TVGenres(ctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
	)
	if err != nil {
		log.Printf("[main] genre warmup: %v", err)
	}
}
