package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/tonatiuh19/intelivoucher-checkout/catalog"
	"github.com/tonatiuh19/intelivoucher-checkout/slices"
)

var _ catalog.Repository = &DB{}

type eventDynamo struct {
	PK                    string
	SK                    string
	ID                    string
	Version               int
	Name                  string
	Venue                 string
	StartTime             time.Time
	Currency              string
	Zones                 []zoneDynamo
	TransportationOptions []transportationOptionDynamo
	JerseyAddonAvailable  bool
	JerseyPriceAmount     int64
}

type zoneDynamo struct {
	ID          string
	Name        string
	PriceAmount int64
	Available   bool
}

type transportationOptionDynamo struct {
	ID                   string
	Name                 string
	AdditionalCostAmount int64
	Available            bool
}

const (
	eventEntityName = "EVENT"
)

func eventPK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", eventEntityName, id)
}

func eventSK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", eventEntityName, id)
}

// All prices of an event share the event currency, so only amounts are stored.
func newEventDynamo(event catalog.Event) eventDynamo {
	return eventDynamo{
		PK:        eventPK(event.ID),
		SK:        eventSK(event.ID),
		ID:        event.ID.String(),
		Version:   event.Version,
		Name:      event.Name,
		Venue:     event.Venue,
		StartTime: event.StartTime,
		Currency:  event.Currency,
		Zones: slices.Map(event.Zones, func(z catalog.Zone) zoneDynamo {
			return zoneDynamo{ID: z.ID, Name: z.Name, PriceAmount: amount(z.Price), Available: z.Available}
		}),
		TransportationOptions: slices.Map(event.TransportationOptions, func(o catalog.TransportationOption) transportationOptionDynamo {
			return transportationOptionDynamo{ID: o.ID, Name: o.Name, AdditionalCostAmount: amount(o.AdditionalCost), Available: o.Available}
		}),
		JerseyAddonAvailable: event.JerseyAddonAvailable,
		JerseyPriceAmount:    amount(event.JerseyPrice),
	}
}

func eventFromEventDynamo(event eventDynamo) catalog.Event {
	return catalog.Event{
		ID:        uuid.MustParse(event.ID),
		Version:   event.Version,
		Name:      event.Name,
		Venue:     event.Venue,
		StartTime: event.StartTime,
		Currency:  event.Currency,
		Zones: slices.Map(event.Zones, func(z zoneDynamo) catalog.Zone {
			return catalog.Zone{ID: z.ID, Name: z.Name, Price: money.New(z.PriceAmount, event.Currency), Available: z.Available}
		}),
		TransportationOptions: slices.Map(event.TransportationOptions, func(o transportationOptionDynamo) catalog.TransportationOption {
			return catalog.TransportationOption{
				ID:             o.ID,
				Name:           o.Name,
				AdditionalCost: money.New(o.AdditionalCostAmount, event.Currency),
				Available:      o.Available,
			}
		}),
		JerseyAddonAvailable: event.JerseyAddonAvailable,
		JerseyPrice:          money.New(event.JerseyPriceAmount, event.Currency),
	}
}

func amount(m *money.Money) int64 {
	if m == nil {
		return 0
	}
	return m.Amount()
}

func (d *DB) GetEvent(ctx context.Context, id uuid.UUID) (catalog.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: eventPK(id)},
			"SK": &types.AttributeValueMemberS{Value: eventSK(id)},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return catalog.Event{}, catalog.NewTimeoutError("GetEvent timed out")
		}
		return catalog.Event{}, catalog.NewFailedToFetchError(fmt.Sprintf("Failed to fetch event with ID %q", id), err)
	}

	if len(resp.Item) == 0 {
		return catalog.Event{}, catalog.NewEventDoesNotExistsError(fmt.Sprintf("Event with ID %q not found", id), nil)
	}

	var event eventDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &event)
	if err != nil {
		return catalog.Event{}, catalog.NewFailedToTranslateError("Failed to unmarshal eventDynamo", err)
	}
	return eventFromEventDynamo(event), nil
}

func (d *DB) CreateEvent(ctx context.Context, event catalog.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeoutCause(ctx, time.Second, catalog.NewTimeoutError("CreateEvent to DB took too long"))
	defer cancel()

	dynamoItem := newEventDynamo(event)

	item, err := attributevalue.MarshalMap(dynamoItem)
	if err != nil {
		return catalog.NewFailedToTranslateError("Failed to convert Event to eventDynamo", err)
	}

	expr := exprMustBuild(expression.NewBuilder().
		WithCondition(newEntityVersionConditional(dynamoItem.Version)))

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(d.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condCheckFailedErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailedErr) {
			return catalog.NewEventAlreadyExistsError(fmt.Sprintf("Event with ID %q already exists", event.ID), err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return catalog.NewTimeoutError("CreateEvent timed out")
		} else {
			return catalog.NewFailedToWriteError("Failed PutItem call", err)
		}
	}

	return nil
}
