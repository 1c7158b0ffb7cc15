package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/devjohxylon/waitlist-api/internal/domain"
)

// AdminKeyRepo provides typed DynamoDB operations for the admin keys table.
type AdminKeyRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAdminKeyRepo(client *dynamodb.Client, tableName string) *AdminKeyRepo {
	return &AdminKeyRepo{client: client, tableName: tableName}
}

func (r *AdminKeyRepo) Put(ctx context.Context, k *domain.AdminKey) error {
	item, err := attributevalue.MarshalMap(k)
	if err != nil {
		return fmt.Errorf("marshal admin key: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AdminKeyRepo) Get(ctx context.Context, keyID string) (*domain.AdminKey, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("key_id", keyID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("admin key not found: %w", domain.ErrNotFound)
	}
	var k domain.AdminKey
	if err := attributevalue.UnmarshalMap(out.Item, &k); err != nil {
		return nil, err
	}
	return &k, nil
}

// GetByPrefix returns the keys sharing a display prefix. Prefixes are random
// but short, so collisions are possible; callers verify each candidate hash.
func (r *AdminKeyRepo) GetByPrefix(ctx context.Context, prefix string) ([]domain.AdminKey, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("key_prefix-index"),
		KeyConditionExpression:    aws.String("key_prefix = :v"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: prefix}},
	})
	if err != nil {
		return nil, err
	}
	var keys []domain.AdminKey
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *AdminKeyRepo) List(ctx context.Context) ([]domain.AdminKey, error) {
	var keys []domain.AdminKey
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.AdminKey
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		keys = append(keys, page...)
		if out.LastEvaluatedKey == nil {
			return keys, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// TouchLastUsed records a successful authorization against the key.
func (r *AdminKeyRepo) TouchLastUsed(ctx context.Context, keyID string, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{"last_used_at": at.UTC().Format(time.RFC3339)})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("key_id", keyID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// Revoke disables a key without deleting its audit trail.
func (r *AdminKeyRepo) Revoke(ctx context.Context, keyID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{"revoked": true})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("key_id", keyID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(key_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("admin key not found: %w", domain.ErrNotFound)
		}
	}
	return err
}
