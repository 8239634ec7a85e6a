package state

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	awsv2xray "github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"

	"citizen-portal/internal/domain"
)

type dynamoAPI interface {
	GetItem(ctx context.Context, in *awsv2dynamodb.GetItemInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *awsv2dynamodb.PutItemInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *awsv2dynamodb.DeleteItemInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.DeleteItemOutput, error)
}

// DynamoStore keeps client state in a DynamoDB table so a kiosk fleet can
// share one login per profile. Items are keyed PROFILE#<profile> / KEY#<key>.
type DynamoStore struct {
	db        dynamoAPI
	tableName string
	profile   string
	now       func() time.Time
}

func NewDynamoStore(ctx context.Context, region, tableName, profile string) (*DynamoStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	awsv2xray.AWSV2Instrumentor(&cfg.APIOptions)
	return newDynamoStore(awsv2dynamodb.NewFromConfig(cfg), tableName, profile), nil
}

func newDynamoStore(db dynamoAPI, tableName, profile string) *DynamoStore {
	if profile == "" {
		profile = "default"
	}
	return &DynamoStore{db: db, tableName: tableName, profile: profile, now: time.Now}
}

func profilePK(profile string) string { return "PROFILE#" + profile }
func keySK(key string) string         { return "KEY#" + key }

func (s *DynamoStore) itemKey(key string) map[string]awsv2types.AttributeValue {
	return map[string]awsv2types.AttributeValue{
		"PK": &awsv2types.AttributeValueMemberS{Value: profilePK(s.profile)},
		"SK": &awsv2types.AttributeValueMemberS{Value: keySK(key)},
	}
}

func (s *DynamoStore) Get(ctx context.Context, key string) (string, error) {
	var out *awsv2dynamodb.GetItemOutput
	err := xray.Capture(ctx, "DynamoDB.GetState", func(ctx context.Context) error {
		var e error
		out, e = s.db.GetItem(ctx, &awsv2dynamodb.GetItemInput{
			TableName:      aws.String(s.tableName),
			Key:            s.itemKey(key),
			ConsistentRead: aws.Bool(true),
		})
		return e
	})
	if err != nil {
		return "", err
	}
	if out == nil || out.Item == nil {
		return "", domain.ErrNotFound
	}
	raw := struct {
		Value string `dynamodbav:"Value"`
	}{}
	if err := attributevalue.UnmarshalMap(out.Item, &raw); err != nil {
		return "", err
	}
	return raw.Value, nil
}

func (s *DynamoStore) Set(ctx context.Context, key, value string) error {
	item := map[string]any{
		"PK":         profilePK(s.profile),
		"SK":         keySK(key),
		"EntityType": "CLIENT_STATE",
		"Value":      value,
		"UpdatedAt":  s.now().UTC().Format(time.RFC3339),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	return xray.Capture(ctx, "DynamoDB.PutState", func(ctx context.Context) error {
		_, err := s.db.PutItem(ctx, &awsv2dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item:      av,
		})
		return err
	})
}

func (s *DynamoStore) Delete(ctx context.Context, key string) error {
	return xray.Capture(ctx, "DynamoDB.DeleteState", func(ctx context.Context) error {
		_, err := s.db.DeleteItem(ctx, &awsv2dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key:       s.itemKey(key),
		})
		return err
	})
}
