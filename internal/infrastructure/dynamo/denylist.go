package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/nulljobs-api/internal/domain"
)

// DenylistRepo tracks revoked refresh-token jtis (logout and rotation).
// PK: jti. Entries carry the token's own expiry as a DynamoDB TTL, so the
// table never outgrows the set of tokens that could still be replayed.
type DenylistRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewDenylistRepo(client *dynamodb.Client, tableName string) *DenylistRepo {
	return &DenylistRepo{client: client, tableName: tableName}
}

func (r *DenylistRepo) Deny(ctx context.Context, d *domain.DeniedToken) error {
	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return fmt.Errorf("marshal denied token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// IsDenied reports whether jti has been revoked. DynamoDB TTL deletion lags,
// so an entry past its expiry is still treated as denied until it is reaped;
// that is harmless because the token itself has also expired by then.
func (r *DenylistRepo) IsDenied(ctx context.Context, jti string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldJTI, jti),
	})
	if err != nil {
		return false, err
	}
	if out.Item == nil {
		return false, nil
	}
	return true, nil
}
