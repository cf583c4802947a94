package journal

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

const (
	// Schema of the DynamoDB table
	tablePartitionKey = "namespace"
	tableSortKey      = "key"
	itemJSONAttribute = "item"
)

// DynamoDB is a Journal stored as items of one partition of a DynamoDB table.
type DynamoDB struct {
	dynamodb  *dynamodb.DynamoDB
	table     string
	namespace string
}

// openDynamoDB reads the table name from the host part of the DSN, and the "region",
// "endpoint" and "namespace" query parameters.
func openDynamoDB(u *url.URL) (*DynamoDB, error) {
	if u.Host == "" {
		return nil, errors.New("DynamoDB journal DSN must name a table")
	}
	q := u.Query()
	config := aws.NewConfig()
	if region := q.Get("region"); region != "" {
		config = config.WithRegion(region)
	}
	if endpoint := q.Get("endpoint"); endpoint != "" {
		config = config.WithEndpoint(endpoint)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *config,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create AWS session: %w", err)
	}
	return NewDynamoDB(dynamodb.New(sess), u.Host, q.Get("namespace")), nil
}

// NewDynamoDB creates a DynamoDB journal. An empty namespace means DefaultPrefix.
func NewDynamoDB(client *dynamodb.DynamoDB, table, namespace string) *DynamoDB {
	if namespace == "" {
		namespace = DefaultPrefix
	}
	return &DynamoDB{dynamodb: client, table: table, namespace: namespace}
}

// EnsureTable creates the table if it does not exist yet.
func (d *DynamoDB) EnsureTable(ctx context.Context) error {
	_, err := d.dynamodb.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)})
	if err == nil {
		return nil
	}
	var aerr awserr.Error
	if !errors.As(err, &aerr) || aerr.Code() != dynamodb.ErrCodeResourceNotFoundException {
		return err
	}
	_, err = d.dynamodb.CreateTableWithContext(ctx, &dynamodb.CreateTableInput{
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String(tablePartitionKey),
				AttributeType: aws.String("S"),
			},
			{
				AttributeName: aws.String(tableSortKey),
				AttributeType: aws.String("S"),
			},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String(tablePartitionKey),
				KeyType:       aws.String("HASH"),
			},
			{
				AttributeName: aws.String(tableSortKey),
				KeyType:       aws.String("RANGE"),
			},
		},
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
		TableName:   aws.String(d.table),
	})
	if err != nil {
		return err
	}
	return d.dynamodb.WaitUntilTableExistsWithContext(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)})
}

func (d *DynamoDB) itemKey(point servicedef.EntityRef) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		tablePartitionKey: {S: aws.String(d.namespace)},
		tableSortKey:      {S: aws.String(point.String())},
	}
}

func (d *DynamoDB) Record(ctx context.Context, entry Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	item := d.itemKey(entry.Point)
	item[itemJSONAttribute] = &dynamodb.AttributeValue{S: aws.String(data)}
	_, err = d.dynamodb.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	return err
}

func (d *DynamoDB) Entries(ctx context.Context) ([]Entry, error) {
	query := &dynamodb.QueryInput{
		TableName:      aws.String(d.table),
		ConsistentRead: aws.Bool(true),
		KeyConditions: map[string]*dynamodb.Condition{
			tablePartitionKey: {
				ComparisonOperator: aws.String(dynamodb.ComparisonOperatorEq),
				AttributeValueList: []*dynamodb.AttributeValue{
					{S: aws.String(d.namespace)},
				},
			},
		},
	}
	var ret []Entry
	var decodeErr error
	err := d.dynamodb.QueryPagesWithContext(ctx, query, func(page *dynamodb.QueryOutput, _ bool) bool {
		for _, item := range page.Items {
			key, value := item[tableSortKey], item[itemJSONAttribute]
			if key == nil || key.S == nil || value == nil || value.S == nil {
				continue
			}
			e, err := decodeEntry(*key.S, []byte(*value.S))
			if err != nil {
				decodeErr = err
				return false
			}
			ret = append(ret, e)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return sortEntries(ret), nil
}

func (d *DynamoDB) Forget(ctx context.Context, point servicedef.EntityRef) error {
	_, err := d.dynamodb.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       d.itemKey(point),
	})
	return err
}

func (d *DynamoDB) DSN() string {
	return fmt.Sprintf("dynamodb://%s?namespace=%s", d.table, url.QueryEscape(d.namespace))
}

func (d *DynamoDB) Close() error { return nil }
