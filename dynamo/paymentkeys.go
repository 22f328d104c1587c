package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/slices"
)

var _ payment.KeyRepository = &DB{}

type paymentKeyDynamo struct {
	PK        string
	SK        string
	Title     string
	KeyString string
	KeyTest   string
}

const (
	paymentKeyEntityName = "PAYMENT_KEY"
)

func paymentKeySK(title string) string {
	return fmt.Sprintf("%s#%s", paymentKeyEntityName, title)
}

// GetPaymentKeys returns every stored publishable/client key. All keys live under a
// single partition so one query returns them all.
func (d *DB) GetPaymentKeys(ctx context.Context) ([]payment.Key, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	expr := exprMustBuild(expression.NewBuilder().
		WithKeyCondition(expression.Key("PK").Equal(expression.Value(paymentKeyEntityName))))

	result, err := d.dynamoClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(d.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query payment keys: %w", err)
	}

	var items []paymentKeyDynamo
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment keys: %w", err)
	}

	return slices.Map(items, func(k paymentKeyDynamo) payment.Key {
		return payment.Key{Title: k.Title, KeyString: k.KeyString, KeyTest: k.KeyTest}
	}), nil
}

// PutPaymentKey stores or replaces the keys of one payment method.
func (d *DB) PutPaymentKey(ctx context.Context, key payment.Key) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	item, err := attributevalue.MarshalMap(paymentKeyDynamo{
		PK:        paymentKeyEntityName,
		SK:        paymentKeySK(key.Title),
		Title:     key.Title,
		KeyString: key.KeyString,
		KeyTest:   key.KeyTest,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payment key: %w", err)
	}

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put payment key %q: %w", key.Title, err)
	}
	return nil
}
