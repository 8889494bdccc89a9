// Command movies-lambda is the API Gateway Lambda function that inserts
// movies into DynamoDB.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/dannyrandall/movies-apigw/internal/config"
	"github.com/dannyrandall/movies-apigw/internal/handlers"
	"github.com/dannyrandall/movies-apigw/internal/logger"
	"github.com/dannyrandall/movies-apigw/internal/otel"
	"github.com/dannyrandall/movies-apigw/internal/store"
	lambdadetector "go.opentelemetry.io/contrib/detectors/aws/lambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("unable to load config: %s", err)
	}

	logs := logger.Initialize(os.Stderr, cfg.LogFormat, cfg.Level())
	if cfg.TableName == "" {
		logs.Warn("TABLE_NAME is not set, writes will fail")
	}

	// Timeout for setup functions
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("unable to load aws config: %s", err)
	}

	flush := func(context.Context) {}
	switch cfg.Tracing {
	case config.TracingXRay:
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
	case config.TracingOTel:
		tp, err := otel.SetupTracer(ctx, cfg.Service(""), lambdadetector.NewResourceDetector())
		if err != nil {
			log.Fatalf("unable to setup otel tracer: %s", err)
		}
		otelaws.AppendMiddlewares(&awsCfg.APIOptions)

		// Spans must leave the process before the execution environment
		// is frozen between invocations.
		flush = func(ctx context.Context) {
			if err := tp.ForceFlush(ctx); err != nil {
				logs.Warn("flush spans", "error", err)
			}
		}
	}
	cancel()

	h := &handlers.APIGateway{
		Movies: &store.Movies{
			Dynamo: dynamodb.NewFromConfig(awsCfg),
			Table:  cfg.TableName,
		},
		NewID:  cfg.IDGenerator(),
		Logger: logs,
	}

	logs.Debug("starting lambda handler", "table", cfg.TableName, "tracing", cfg.Tracing)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		defer flush(ctx)
		return h.Handle(ctx, req)
	})
}
