// Command movie-processor inserts movies received from an SQS queue.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/dannyrandall/movies-apigw/internal/config"
	"github.com/dannyrandall/movies-apigw/internal/copilot"
	"github.com/dannyrandall/movies-apigw/internal/logger"
	"github.com/dannyrandall/movies-apigw/internal/moviequeue"
	"github.com/dannyrandall/movies-apigw/internal/otel"
	"github.com/dannyrandall/movies-apigw/internal/store"
	"go.opentelemetry.io/contrib/detectors/aws/ecs"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	otelotel "go.opentelemetry.io/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("unable to load config: %s", err)
	}

	logs := logger.Initialize(os.Stderr, cfg.LogFormat, cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	setupCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	svcName := cfg.Service(copilot.ServiceName("movies-processor"))
	if cfg.Tracing == config.TracingOTel {
		tp, err := otel.SetupTracer(setupCtx, svcName, ecs.NewResourceDetector())
		if err != nil {
			log.Fatalf("unable to setup otel tracer: %s", err)
		}
		defer tp.Shutdown(context.Background())
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(setupCtx)
	if err != nil {
		log.Fatalf("unable to load aws config: %s", err)
	}

	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	queueName := cfg.QueueName
	if queueName == "" {
		queueName = copilot.QueueName()
	}

	q := &moviequeue.Queue{
		SQS: sqs.NewFromConfig(awsCfg),
		Movies: &store.Movies{
			Dynamo: dynamodb.NewFromConfig(awsCfg),
			Table:  cfg.TableName,
		},
		Tracer:          otelotel.Tracer(""),
		Logger:          logs,
		QueueName:       queueName,
		QueueURL:        cfg.QueueURL,
		WaitTimeSeconds: 20,
	}
	if err := q.ResolveURL(setupCtx); err != nil {
		log.Fatalf("unable to resolve queue: %s", err)
	}

	logs.Info("waiting for events", "queue_url", q.QueueURL, "table", cfg.TableName)

	q.ReceiveAndProcess(ctx)
	logs.Info("stopped")
}
