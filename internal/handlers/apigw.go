// Package handlers implements the movie insert request handler.
package handlers

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/dannyrandall/movies-apigw/internal/logger"
	"github.com/dannyrandall/movies-apigw/internal/movies"
	"github.com/dannyrandall/movies-apigw/internal/otel"
	otelotel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const successBody = `{"message": "Successfully inserted data!"}`

// MovieStore persists movies.
type MovieStore interface {
	Put(ctx context.Context, movie movies.Movie) error
}

// APIGateway handles API Gateway proxy events by inserting one movie per
// invocation. Errors are returned to the caller unchanged so the Lambda
// runtime reports the invocation as failed.
type APIGateway struct {
	Movies MovieStore

	// NewID generates ids for default records. Defaults to movies.NewID.
	NewID  func() string
	Logger *slog.Logger
	Tracer trace.Tracer
	Now    func() time.Time
}

func (h *APIGateway) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx = otel.WithTraceHeader(ctx, logger.LambdaTraceHeader(ctx))
	ctx, span := h.tracer().Start(ctx, "InsertMovie", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	var traceID string
	if span.SpanContext().IsValid() {
		traceID = otel.XRayTraceID(span)
	}
	log := logger.ForRequest(ctx, h.Logger, traceID)

	requestID := logger.RequestID(ctx)
	if requestID == "" {
		requestID = req.RequestContext.RequestID
	}
	log.Info("request received",
		"timestamp", h.now().UTC().Format(time.RFC3339Nano),
		"request_id", logger.Nullable(requestID),
		"source_ip", logger.Nullable(req.RequestContext.Identity.SourceIP),
		"user_agent", logger.Nullable(req.RequestContext.Identity.UserAgent),
		"http_method", logger.Nullable(req.RequestContext.HTTPMethod),
		"resource_path", logger.Nullable(req.RequestContext.ResourcePath),
	)

	var movie movies.Movie
	if req.Body == "" {
		log.Info("received request without a payload")
		movie = movies.Default(h.newID())
	} else {
		body := []byte(req.Body)
		if req.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				return events.APIGatewayProxyResponse{}, otel.SpanErrorf(span, "decode body: %w", &movies.DecodeError{Err: err})
			}
			body = decoded
		}

		payload, err := movies.DecodePayload(body)
		if err != nil {
			return events.APIGatewayProxyResponse{}, otel.SpanErrorf(span, "decode body: %w", err)
		}
		log.Info("received payload", "payload", movies.Redact(payload))

		movie, err = movies.ParseMovie(body)
		if err != nil {
			return events.APIGatewayProxyResponse{}, otel.SpanErrorf(span, "parse movie: %w", err)
		}
	}

	if err := h.Movies.Put(ctx, movie); err != nil {
		return events.APIGatewayProxyResponse{}, otel.SpanErrorf(span, "put movie %q: %w", movie.ID, err)
	}
	log.Debug("inserted movie", "id", movie.ID)

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       successBody,
	}, nil
}

func (h *APIGateway) tracer() trace.Tracer {
	if h.Tracer != nil {
		return h.Tracer
	}
	return otelotel.Tracer("")
}

func (h *APIGateway) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return movies.NewID()
}

func (h *APIGateway) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *APIGateway) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
