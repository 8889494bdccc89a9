// Package store writes movies to DynamoDB.
package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/dannyrandall/movies-apigw/internal/movies"
)

// PutItemAPI is the part of *dynamodb.Client the store needs.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type Movies struct {
	Dynamo PutItemAPI
	Table  string
}

// Put inserts movie, overwriting any item with the same key.
func (m *Movies) Put(ctx context.Context, movie movies.Movie) error {
	av, err := attributevalue.MarshalMap(movie)
	if err != nil {
		return fmt.Errorf("marshal movie: %w", err)
	}

	_, err = m.Dynamo.PutItem(ctx, &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(m.Table),
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}

	return nil
}
