// Package moviequeue inserts movies delivered through an SQS queue.
package moviequeue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/dannyrandall/movies-apigw/internal/movies"
	"github.com/dannyrandall/movies-apigw/internal/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// SQSAPI is the part of *sqs.Client the queue uses.
type SQSAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type MovieStore interface {
	Put(ctx context.Context, movie movies.Movie) error
}

type Queue struct {
	SQS    SQSAPI
	Movies MovieStore
	Tracer trace.Tracer
	Logger *slog.Logger

	QueueName string
	QueueURL  string

	// WaitTimeSeconds is the long-poll duration of each receive.
	WaitTimeSeconds int32
	// RetryDelay is the pause after a failed receive or process.
	RetryDelay      time.Duration
}

const defaultRetryDelay = 5 * time.Second

// ResolveURL looks up QueueURL from QueueName when it is not set.
func (q *Queue) ResolveURL(ctx context.Context) error {
	if q.QueueURL != "" {
		return nil
	}
	if q.QueueName == "" {
		return errors.New("queue url or queue name is required")
	}

	res, err := q.SQS.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(q.QueueName),
	})
	if err != nil {
		return fmt.Errorf("get queue url: %w", err)
	}

	q.QueueURL = aws.ToString(res.QueueUrl)
	return nil
}

// ReceiveAndProcess polls the queue until ctx is done. Messages that cannot
// be processed stay on the queue and become visible again for redrive.
// After a failure it waits RetryDelay before polling again.
func (q *Queue) ReceiveAndProcess(ctx context.Context) {
	for ctx.Err() == nil {
		err := q.ReceiveOnce(ctx)
		if err == nil || ctx.Err() != nil {
			continue
		}
		q.Logger.Error("receive and process", "error", err)

		select {
		case <-ctx.Done():
		case <-time.After(q.retryDelay()):
		}
	}
}

func (q *Queue) retryDelay() time.Duration {
	if q.RetryDelay > 0 {
		return q.RetryDelay
	}
	return defaultRetryDelay
}

// ReceiveOnce receives at most one message and processes it.
func (q *Queue) ReceiveOnce(ctx context.Context) error {
	ctx, span := q.Tracer.Start(ctx, "recvAndProcess",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(semconv.MessagingSystemKey.String("AmazonSQS")),
		trace.WithAttributes(semconv.MessagingDestinationKey.String(q.QueueName)),
		trace.WithAttributes(semconv.MessagingDestinationKindQueue))
	defer span.End()

	msgs, err := q.receiveMessages(ctx)
	if err != nil {
		return otel.SpanErrorf(span, "receive message: %w", err)
	}

	for _, msg := range msgs {
		if err := q.processMessage(ctx, msg); err != nil {
			return otel.SpanErrorf(span, "process message %q: %w", aws.ToString(msg.MessageId), err)
		}
	}

	return nil
}

func (q *Queue) receiveMessages(ctx context.Context) ([]types.Message, error) {
	res, err := q.SQS.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.QueueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     q.WaitTimeSeconds,
	})
	if err != nil {
		return nil, err
	}

	return res.Messages, nil
}

func (q *Queue) processMessage(ctx context.Context, msg types.Message) error {
	ctx, span := q.Tracer.Start(ctx, "processMessage", trace.WithAttributes(semconv.MessagingMessageIDKey.String(aws.ToString(msg.MessageId))))
	defer span.End()

	movie, err := movies.ParseMovie([]byte(aws.ToString(msg.Body)))
	if err != nil {
		return otel.SpanErrorf(span, "parse movie: %w", err)
	}

	if err := q.Movies.Put(ctx, movie); err != nil {
		return otel.SpanErrorf(span, "put movie: %w", err)
	}

	if err := q.deleteMessage(ctx, msg.ReceiptHandle); err != nil {
		return otel.SpanErrorf(span, "delete message: %w", err)
	}

	q.Logger.Info("inserted movie from queue", "id", movie.ID, "message_id", aws.ToString(msg.MessageId))
	return nil
}

func (q *Queue) deleteMessage(ctx context.Context, receiptHandle *string) error {
	_, err := q.SQS.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.QueueURL),
		ReceiptHandle: receiptHandle,
	})

	return err
}
