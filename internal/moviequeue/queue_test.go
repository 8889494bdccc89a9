package moviequeue

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/dannyrandall/movies-apigw/internal/movies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type fakeSQS struct {
	messages     []types.Message
	receiveErr   error
	receiveCalls int
	deleted      []string
	queueURL     string
}

func (f *fakeSQS) GetQueueUrl(_ context.Context, params *sqs.GetQueueUrlInput, _ ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	return &sqs.GetQueueUrlOutput{QueueUrl: aws.String(f.queueURL + "/" + aws.ToString(params.QueueName))}, nil
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, params *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.receiveCalls++
	if f.receiveErr != nil {
		return nil, f.receiveErr
	}
	n := int(params.MaxNumberOfMessages)
	if n > len(f.messages) {
		n = len(f.messages)
	}
	out := f.messages[:n]
	f.messages = f.messages[n:]
	return &sqs.ReceiveMessageOutput{Messages: out}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeStore struct {
	puts []movies.Movie
	err  error
}

func (f *fakeStore) Put(_ context.Context, movie movies.Movie) error {
	f.puts = append(f.puts, movie)
	return f.err
}

func message(id, body string) types.Message {
	return types.Message{
		MessageId:     aws.String(id),
		ReceiptHandle: aws.String("rh-" + id),
		Body:          aws.String(body),
	}
}

func newQueue(q *fakeSQS, s *fakeStore) *Queue {
	return &Queue{
		SQS:       q,
		Movies:    s,
		Tracer:    noop.NewTracerProvider().Tracer(""),
		Logger:    slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)),
		QueueName: "movies",
		QueueURL:  "https://sqs.us-west-2.amazonaws.com/123456789012/movies",
	}
}

func TestReceiveOnce(t *testing.T) {
	sqsClient := &fakeSQS{messages: []types.Message{message("m1", `{"year": 2020, "title": "Dune", "id": "abc-1"}`)}}
	store := &fakeStore{}

	err := newQueue(sqsClient, store).ReceiveOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []movies.Movie{{ID: "abc-1", Title: "Dune", Year: "2020"}}, store.puts)
	assert.Equal(t, []string{"rh-m1"}, sqsClient.deleted)
}

func TestReceiveOnce_Empty(t *testing.T) {
	sqsClient := &fakeSQS{}
	store := &fakeStore{}

	require.NoError(t, newQueue(sqsClient, store).ReceiveOnce(context.Background()))
	assert.Empty(t, store.puts)
	assert.Empty(t, sqsClient.deleted)
}

func TestReceiveOnce_BadMessageIsKept(t *testing.T) {
	sqsClient := &fakeSQS{messages: []types.Message{message("m1", `{"title": "Dune"}`)}}
	store := &fakeStore{}

	err := newQueue(sqsClient, store).ReceiveOnce(context.Background())

	var missing *movies.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Empty(t, store.puts)
	assert.Empty(t, sqsClient.deleted)
}

func TestReceiveOnce_PutFailureIsKept(t *testing.T) {
	cause := errors.New("throttled")
	sqsClient := &fakeSQS{messages: []types.Message{message("m1", `{"year": 2020, "title": "Dune", "id": "abc-1"}`)}}
	store := &fakeStore{err: cause}

	err := newQueue(sqsClient, store).ReceiveOnce(context.Background())

	require.ErrorIs(t, err, cause)
	assert.Empty(t, sqsClient.deleted)
}

func TestReceiveOnce_ReceiveError(t *testing.T) {
	cause := errors.New("AWS.SimpleQueueService.NonExistentQueue")
	err := newQueue(&fakeSQS{receiveErr: cause}, &fakeStore{}).ReceiveOnce(context.Background())
	require.ErrorIs(t, err, cause)
}

func TestReceiveAndProcess_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sqsClient := &fakeSQS{receiveErr: context.Canceled}
	newQueue(sqsClient, &fakeStore{}).ReceiveAndProcess(ctx)
	assert.Zero(t, sqsClient.receiveCalls)
}

func TestReceiveAndProcess_WaitsAfterFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	sqsClient := &fakeSQS{receiveErr: errors.New("AccessDenied")}
	q := newQueue(sqsClient, &fakeStore{})
	q.RetryDelay = 20 * time.Millisecond

	start := time.Now()
	q.ReceiveAndProcess(ctx)

	assert.GreaterOrEqual(t, sqsClient.receiveCalls, 1)
	assert.LessOrEqual(t, sqsClient.receiveCalls, 4)
	assert.Less(t, time.Since(start), time.Second)
}

func TestReceiveAndProcess_CancelInterruptsDelay(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	sqsClient := &fakeSQS{receiveErr: errors.New("AccessDenied")}
	q := newQueue(sqsClient, &fakeStore{})
	q.RetryDelay = time.Hour

	start := time.Now()
	q.ReceiveAndProcess(ctx)

	assert.Equal(t, 1, sqsClient.receiveCalls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestResolveURL(t *testing.T) {
	sqsClient := &fakeSQS{queueURL: "https://sqs.us-west-2.amazonaws.com/123456789012"}
	q := newQueue(sqsClient, &fakeStore{})
	q.QueueURL = ""

	require.NoError(t, q.ResolveURL(context.Background()))
	assert.Equal(t, "https://sqs.us-west-2.amazonaws.com/123456789012/movies", q.QueueURL)

	q.QueueURL, q.QueueName = "", ""
	assert.Error(t, q.ResolveURL(context.Background()))
}
