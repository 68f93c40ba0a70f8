package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/i474232898/coffee-machine/internal/coffee"
	"github.com/i474232898/coffee-machine/internal/common"
)

const (
	sMachine = "MACHINE"
	sRequest = "REQUEST"
)

func pkMachine(id string) string { return fmt.Sprintf("%s#%s", sMachine, id) }
func skRequest() string          { return sRequest }

type dynamoItem struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	RequestCount    int    `dynamodbav:"request_count"`
	LastRequestDate string `dynamodbav:"last_request_date"`
}

// DynamoStore keeps the brew record as one item keyed by machine.
type DynamoStore struct {
	table     string
	cli       *dynamodb.Client
	machineID string
}

// NewDynamoStore creates the table if it does not exist yet.
func NewDynamoStore(ctx context.Context, table string, cli *dynamodb.Client, machineID string) (*DynamoStore, error) {
	if err := createTableIfNotExists(ctx, cli, table); err != nil {
		return nil, err
	}
	return &DynamoStore{table: table, cli: cli, machineID: machineID}, nil
}

// Get reads the machine item with a consistent read; nil when absent.
func (s *DynamoStore) Get(ctx context.Context) (*coffee.BrewRecord, error) {
	out, err := s.cli.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.table,
		Key: map[string]ddbTypes.AttributeValue{
			"PK": &ddbTypes.AttributeValueMemberS{Value: pkMachine(s.machineID)},
			"SK": &ddbTypes.AttributeValueMemberS{Value: skRequest()},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	date, err := common.ParseDate(item.LastRequestDate)
	if err != nil {
		return nil, fmt.Errorf("invalid last_request_date: %w", err)
	}
	return &coffee.BrewRecord{RequestCount: item.RequestCount, LastRequestDate: date}, nil
}

// Update overwrites the machine item.
func (s *DynamoStore) Update(ctx context.Context, record coffee.BrewRecord) error {
	item, err := attributevalue.MarshalMap(dynamoItem{
		PK:              pkMachine(s.machineID),
		SK:              skRequest(),
		RequestCount:    record.RequestCount,
		LastRequestDate: common.FormatDate(record.LastRequestDate),
	})
	if err != nil {
		return err
	}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      item,
	})
	return err
}

// Close is a no-op; the client holds no connections to release.
func (s *DynamoStore) Close() error { return nil }

func createTableIfNotExists(ctx context.Context, client *dynamodb.Client, table string) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &table,
		AttributeDefinitions: []ddbTypes.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
		},
		KeySchema: []ddbTypes.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: ddbTypes.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: ddbTypes.KeyTypeRange},
		},
		BillingMode: ddbTypes.BillingModePayPerRequest,
	})
	if err != nil {
		var re *ddbTypes.ResourceInUseException
		if errors.As(err, &re) {
			return nil
		}
		return fmt.Errorf("create table %s: %w", table, err)
	}
	// A fresh table is not writable until it turns ACTIVE.
	return dynamodb.NewTableExistsWaiter(client).Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	}, 30*time.Second)
}
