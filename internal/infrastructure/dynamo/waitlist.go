package dynamo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/devjohxylon/waitlist-api/internal/domain"
)

// WaitlistRepo provides typed DynamoDB operations for the waitlist table and
// its referral-code uniqueness markers. The normalized email is the partition
// key, so the table's own key constraint is the authoritative email dedup.
type WaitlistRepo struct {
	client    *dynamodb.Client
	tableName string
	codeTable string
}

func NewWaitlistRepo(client *dynamodb.Client, tableName, codeTable string) *WaitlistRepo {
	return &WaitlistRepo{client: client, tableName: tableName, codeTable: codeTable}
}

// Insert writes a new entry, failing with domain.ErrEmailExists if the email
// is already registered. The conditional put is the serialization point; no
// prior existence check is needed.
func (r *WaitlistRepo) Insert(ctx context.Context, e *domain.WaitlistEntry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("email %s: %w", e.Email, domain.ErrEmailExists)
		}
		return err
	}
	return nil
}

func (r *WaitlistRepo) GetByEmail(ctx context.Context, email string) (*domain.WaitlistEntry, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("entry not found: %w", domain.ErrNotFound)
	}
	var e domain.WaitlistEntry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *WaitlistRepo) GetByID(ctx context.Context, entryID string) (*domain.WaitlistEntry, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("entry_id-index"),
		KeyConditionExpression:    aws.String("entry_id = :v"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: entryID}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("entry not found: %w", domain.ErrNotFound)
	}
	var e domain.WaitlistEntry
	if err := attributevalue.UnmarshalMap(out.Items[0], &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByCode resolves the entry that owns a referral code, for attribution
// lookups from the admin console.
func (r *WaitlistRepo) GetByCode(ctx context.Context, code string) (*domain.WaitlistEntry, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("referral_code-index"),
		KeyConditionExpression:    aws.String("referral_code = :v"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: code}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("entry not found: %w", domain.ErrNotFound)
	}
	var e domain.WaitlistEntry
	if err := attributevalue.UnmarshalMap(out.Items[0], &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// CodeExists checks the marker table for an assigned referral code. This is
// the allocator's optimistic check; the conditional put in AttachCode remains
// the authoritative constraint.
func (r *WaitlistRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.codeTable),
		Key:       strKey("code", code),
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

// AttachCode assigns a referral code (and the optional referred_by) to an
// existing entry. The code marker put and the entry update run in one
// transaction: either the entry gains its code and the code becomes taken, or
// neither happens. A code claimed by a concurrent attach fails the marker's
// condition and surfaces as domain.ErrCodeTaken. The entry-side condition keeps the
// code assign-once: an entry that already has one is never overwritten.
func (r *WaitlistRepo) AttachCode(ctx context.Context, email, code, referredBy string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	expr := "SET referral_code = :c, updated_at = :t"
	values := map[string]types.AttributeValue{
		":c": &types.AttributeValueMemberS{Value: code},
		":t": &types.AttributeValueMemberS{Value: now},
	}
	if referredBy != "" {
		expr += ", referred_by = :r"
		values[":r"] = &types.AttributeValueMemberS{Value: referredBy}
	}

	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName: aws.String(r.codeTable),
					Item: map[string]types.AttributeValue{
						"code":       &types.AttributeValueMemberS{Value: code},
						"email":      &types.AttributeValueMemberS{Value: email},
						"created_at": &types.AttributeValueMemberS{Value: now},
					},
					ConditionExpression: aws.String("attribute_not_exists(code)"),
				},
			},
			{
				Update: &types.Update{
					TableName:                 aws.String(r.tableName),
					Key:                       strKey("email", email),
					UpdateExpression:          aws.String(expr),
					ConditionExpression:       aws.String("attribute_exists(email) AND attribute_not_exists(referral_code)"),
					ExpressionAttributeValues: values,
				},
			},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for i, reason := range tce.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					if i == 0 {
						return domain.ErrCodeTaken
					}
					return fmt.Errorf("entry missing or code already assigned: %w", domain.ErrNotFound)
				}
			}
		}
		return err
	}
	return nil
}

// UpdateStatus mutates a single entry's status.
func (r *WaitlistRepo) UpdateStatus(ctx context.Context, email, status string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("email", email),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(email)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("entry not found: %w", domain.ErrNotFound)
		}
	}
	return err
}

// Delete removes an entry and, when present, its referral code marker.
func (r *WaitlistRepo) Delete(ctx context.Context, e *domain.WaitlistEntry) error {
	if e.ReferralCode == "" {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       strKey("email", e.Email),
		})
		return err
	}
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{TableName: aws.String(r.tableName), Key: strKey("email", e.Email)}},
			{Delete: &types.Delete{TableName: aws.String(r.codeTable), Key: strKey("code", e.ReferralCode)}},
		},
	})
	return err
}

// QueryPage returns a page of entries, optionally filtered by status (served
// from the status-index GSI). cursor is a base64-encoded email used as the
// ExclusiveStartKey; an empty next cursor means no more pages.
func (r *WaitlistRepo) QueryPage(ctx context.Context, limit int32, cursor, status string) ([]domain.WaitlistEntry, string, error) {
	var items []map[string]types.AttributeValue
	var lastKey map[string]types.AttributeValue

	if status != "" {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String("status-index"),
			KeyConditionExpression:    aws.String("#s = :v"),
			ExpressionAttributeNames:  map[string]string{"#s": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: status}},
			Limit:                     aws.Int32(limit),
		}
		if cursor != "" {
			email, err := decodeCursor(cursor)
			if err != nil {
				return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
			}
			input.ExclusiveStartKey = map[string]types.AttributeValue{
				"status": &types.AttributeValueMemberS{Value: status},
				"email":  &types.AttributeValueMemberS{Value: email},
			}
		}
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, "", err
		}
		items, lastKey = out.Items, out.LastEvaluatedKey
	} else {
		input := &dynamodb.ScanInput{
			TableName: aws.String(r.tableName),
			Limit:     aws.Int32(limit),
		}
		if cursor != "" {
			email, err := decodeCursor(cursor)
			if err != nil {
				return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
			}
			input.ExclusiveStartKey = strKey("email", email)
		}
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, "", err
		}
		items, lastKey = out.Items, out.LastEvaluatedKey
	}

	var entries []domain.WaitlistEntry
	if err := attributevalue.UnmarshalListOfMaps(items, &entries); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := lastKey["email"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return entries, nextCursor, nil
}

// ListAll returns every entry. Used by the bulk dispatcher and CSV export;
// acceptable at waitlist scale, not meant for unbounded datasets.
func (r *WaitlistRepo) ListAll(ctx context.Context) ([]domain.WaitlistEntry, error) {
	var entries []domain.WaitlistEntry
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.WaitlistEntry
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		entries = append(entries, page...)
		if out.LastEvaluatedKey == nil {
			return entries, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// ListByStatus returns every entry with the given status via the status GSI.
func (r *WaitlistRepo) ListByStatus(ctx context.Context, status string) ([]domain.WaitlistEntry, error) {
	var entries []domain.WaitlistEntry
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String("status-index"),
			KeyConditionExpression:    aws.String("#s = :v"),
			ExpressionAttributeNames:  map[string]string{"#s": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: status}},
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.WaitlistEntry
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		entries = append(entries, page...)
		if out.LastEvaluatedKey == nil {
			return entries, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// Count returns the total number of entries.
func (r *WaitlistRepo) Count(ctx context.Context) (int, error) {
	total := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			Select:            types.SelectCount,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return 0, err
		}
		total += int(out.Count)
		if out.LastEvaluatedKey == nil {
			return total, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func encodeCursor(email string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(email))
}

func decodeCursor(cursor string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
