// Command movies serves the movie insert handler over plain HTTP, for local
// development and container deployments.
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

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/dannyrandall/movies-apigw/internal/config"
	"github.com/dannyrandall/movies-apigw/internal/copilot"
	"github.com/dannyrandall/movies-apigw/internal/handlers"
	"github.com/dannyrandall/movies-apigw/internal/logger"
	"github.com/dannyrandall/movies-apigw/internal/otel"
	"github.com/dannyrandall/movies-apigw/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/detectors/aws/ecs"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("unable to load config: %s", err)
	}

	logs := logger.Initialize(os.Stderr, cfg.LogFormat, cfg.Level())
	logs.Info("using DynamoDB movies table", "table", cfg.TableName)

	// Timeout for setup functions
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	svcName := cfg.Service(copilot.ServiceName("movies"))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("unable to load aws config: %s", err)
	}

	h := &handlers.APIGateway{
		NewID:  cfg.IDGenerator(),
		Logger: logs,
	}

	var movieHandler http.Handler = h
	switch cfg.Tracing {
	case config.TracingXRay:
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
		movieHandler = xray.Handler(xray.NewFixedSegmentNamer(svcName), h)
	case config.TracingOTel:
		tp, err := otel.SetupTracer(ctx, svcName, ecs.NewResourceDetector())
		if err != nil {
			log.Fatalf("unable to setup otel tracer: %s", err)
		}
		defer tp.Shutdown(context.Background())

		otelaws.AppendMiddlewares(&awsCfg.APIOptions)
		movieHandler = otelhttp.NewHandler(h, "movie")
	}

	h.Movies = &store.Movies{
		Dynamo: dynamodb.NewFromConfig(awsCfg),
		Table:  cfg.TableName,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Simple health check endpoint
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Handle("/movies/api/movie", movieHandler)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logs.Info("starting server", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("error serving: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logs.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logs.Error("server shutdown", "error", err)
		os.Exit(1)
	}
}
