package adapters

import (
	"context"
	"time"

	"prompt-to-video/application/ports/outbound"
	"prompt-to-video/config"
	"prompt-to-video/domain"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
)

type dynamoJobItem struct {
	ProjectID   string `dynamodbav:"project_id"`
	SceneIndex  int    `dynamodbav:"scene_index"`
	Stage       string `dynamodbav:"stage"`
	JobID       string `dynamodbav:"job_id"`
	ArtifactURL string `dynamodbav:"artifact_url"`
	TTL         int64  `dynamodbav:"ttl"`
}

type dynamoJobCache struct {
	logger       outbound.LoggerPort
	dynamoSvc    *dynamodb.DynamoDB
	dynamoConfig *config.DynamoConfig
}

func NewDynamoJobCache(logger outbound.LoggerPort, dynamoSvc *dynamodb.DynamoDB,
	dynamoConfig *config.DynamoConfig) outbound.JobCachePort {
	return &dynamoJobCache{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
	}
}

func (c *dynamoJobCache) Save(ctx context.Context, event domain.SceneEvent) error {
	item := dynamoJobItem{
		ProjectID:   event.ProjectID,
		SceneIndex:  event.SceneIndex,
		Stage:       string(event.Stage),
		JobID:       event.JobID,
		ArtifactURL: event.ArtifactURL,
		TTL:         time.Now().Add(time.Duration(c.dynamoConfig.TtlMinutes) * time.Minute).Unix(),
	}
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		c.logger.ErrorWithFields(err, "failed to marshal scene job item", map[string]interface{}{
			"item": item,
		})
		return err
	}

	input := &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(c.dynamoConfig.TableName),
	}

	_, err = c.dynamoSvc.PutItemWithContext(ctx, input)
	if err != nil {
		c.logger.ErrorWithFields(err, "failed to save scene job item", map[string]interface{}{
			"item": item,
		})
		return err
	}

	return nil
}
