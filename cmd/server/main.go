package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"credentia/internal/assessment"
	assessmentadapters "credentia/internal/assessment/adapters"
	assessmenthandler "credentia/internal/assessment/handler"
	"credentia/internal/audit"
	auditkafka "credentia/internal/audit/kafka"
	"credentia/internal/authz"
	"credentia/internal/course"
	courseadapters "credentia/internal/course/adapters"
	coursehandler "credentia/internal/course/handler"
	"credentia/internal/credential"
	credentialadapters "credentia/internal/credential/adapters"
	credentialhandler "credentia/internal/credential/handler"
	credentialmetrics "credentia/internal/credential/metrics"
	"credentia/internal/credential/revocation"
	"credentia/internal/credential/token"
	"credentia/internal/identity"
	identityhandler "credentia/internal/identity/handler"
	"credentia/internal/jwttoken"
	"credentia/internal/platform/config"
	"credentia/internal/platform/httpserver"
	"credentia/internal/platform/logger"
	"credentia/internal/platform/metrics"
	platformredis "credentia/internal/platform/redis"
	httptransport "credentia/internal/transport/http"
	"credentia/pkg/domain"
)

// main wires the module graph in dependency order (identity, course,
// assessment, credential) and runs the HTTP server alongside the audit
// worker. Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	admin, err := domain.ParseAddress(cfg.AdminAddress)
	if err != nil {
		log.Error("invalid admin address", "error", err)
		os.Exit(1)
	}
	registry := authz.NewRegistry(admin)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Audit pipeline: synchronous store plus an optional Kafka sink fed
	// through a bounded inbox.
	var (
		inbox chan audit.Event
		sink  *auditkafka.Sink
	)
	if brokers := auditkafka.ParseBrokers(cfg.Kafka.Brokers); len(brokers) > 0 {
		sink, err = auditkafka.NewSink(ctx, brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka sink unavailable", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		inbox = make(chan audit.Event, 256)
	}
	publisher := audit.NewPublisher(audit.NewInMemoryStore(), inbox)

	identitySvc := identity.NewService(identity.NewInMemoryStore(), registry, publisher)
	courseSvc := course.NewService(course.NewInMemoryStore(), courseadapters.NewIdentityAdapter(identitySvc), registry, publisher)
	assessmentSvc := assessment.NewService(assessment.NewInMemoryStore(), assessmentadapters.NewCourseAdapter(courseSvc), registry, publisher)

	var credentialStore credential.Store = credential.NewInMemoryStore()
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pgStore := credential.NewPostgresStore(db)
		if err := pgStore.Migrate(ctx); err != nil {
			log.Error("migrate postgres", "error", err)
			os.Exit(1)
		}
		credentialStore = pgStore
	}

	var revocations credential.RevocationList = credential.NewInMemoryRevocationList()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocations = revocation.NewRedisList(redisClient.Client)
	}

	credentialSvc := credential.NewService(
		credentialStore,
		revocations,
		token.NewLedger(),
		credentialadapters.NewCourseAdapter(courseSvc),
		credentialadapters.NewIdentityAdapter(identitySvc, admin),
		registry,
		publisher,
		credentialmetrics.New(),
	)

	jwt := jwttoken.NewJWTService(cfg.JWTSigningKey, "credentia", "credentia")
	router := httptransport.NewRouter(log, jwt, metrics.New(), publisher,
		identityhandler.New(identitySvc, log),
		coursehandler.New(courseSvc, log),
		assessmenthandler.New(assessmentSvc, log),
		credentialhandler.New(credentialSvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting credentia", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if sink != nil {
		worker := audit.NewWorker(sink, inbox)
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("shutdown", "error", err)
		os.Exit(1)
	}
}
