package adapters

import (
	"context"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/config"
	"time"
)

type dynamoRunItem struct {
	RunId        string  `dynamodbav:"run_id"`
	MessageIndex int     `dynamodbav:"message_index"`
	Text         string  `dynamodbav:"text"`
	Duration     float64 `dynamodbav:"duration"`
	CueCount     int     `dynamodbav:"cue_count"`
	Source       string  `dynamodbav:"source"`
	CreatedAt    int64   `dynamodbav:"created_at"`
	TTL          int64   `dynamodbav:"ttl"`
}

type dynamoRunJournal struct {
	logger       outbound.LoggerPort
	dynamoSvc    dynamodbiface.DynamoDBAPI
	dynamoConfig *config.DynamoConfig
	now          func() time.Time
}

func NewDynamoRunJournal(logger outbound.LoggerPort, dynamoSvc dynamodbiface.DynamoDBAPI, dynamoConfig *config.DynamoConfig) outbound.RunJournalPort {
	return &dynamoRunJournal{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
		now:          time.Now,
	}
}

func (j *dynamoRunJournal) Record(ctx context.Context, entry outbound.RunJournalEntry) error {
	now := j.now()
	item := dynamoRunItem{
		RunId:        entry.RunID,
		MessageIndex: entry.MessageIndex,
		Text:         entry.Text,
		Duration:     entry.Duration,
		CueCount:     entry.CueCount,
		Source:       string(entry.Source),
		CreatedAt:    now.Unix(),
		TTL:          now.Add(time.Duration(j.dynamoConfig.TtlMinutes) * time.Minute).Unix(),
	}
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		j.logger.ErrorWithFields(err, "Failed to marshal run item", map[string]interface{}{
			"item": item,
		})
		return err
	}

	input := &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(j.dynamoConfig.TableName),
	}

	_, err = j.dynamoSvc.PutItemWithContext(ctx, input)
	if err != nil {
		j.logger.ErrorWithFields(err, "Failed to save run item", map[string]interface{}{
			"runId":        item.RunId,
			"messageIndex": item.MessageIndex,
		})
		return err
	}

	return nil
}

type noopRunJournal struct{}

func NewNoopRunJournal() outbound.RunJournalPort {
	return noopRunJournal{}
}

func (noopRunJournal) Record(context.Context, outbound.RunJournalEntry) error {
	return nil
}
