package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/logger"
)

// PostEventPublisher emits post lifecycle events to a Google Pub/Sub topic.
type PostEventPublisher struct {
	client    *pubsub.Client
	topicName string
}

func NewPostEventPublisher(client *pubsub.Client, topicName string) repository.IPostEvents {
	if topicName == "" {
		topicName = "post-events"
	}
	return &PostEventPublisher{client: client, topicName: topicName}
}

func (p *PostEventPublisher) PublishPostEvent(ctx context.Context, evt *model.PostEvent) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode post event: %w", err)
	}

	topic := p.client.Topic(p.topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicName).Info("Topic doesn't exist - creating it")
		if _, err = p.client.CreateTopic(ctx, p.topicName); err != nil {
			return err
		}
		topic = p.client.Topic(p.topicName)
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().
		WithField("server ID", serverID).
		WithField("post_id", evt.PostID).
		WithField("status", evt.Status).
		Info("Post event published")
	return nil
}
