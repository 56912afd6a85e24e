package servicebus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/logger"
)

// NewServiceBus builds an Azure Service Bus client from the namespace using
// the ambient Azure credential chain.
func NewServiceBus(_ context.Context, namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("service bus namespace not configured")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

// PostEventPublisher emits post lifecycle events to a Service Bus queue.
type PostEventPublisher struct {
	client *azservicebus.Client
	queue  string
}

func NewPostEventPublisher(client *azservicebus.Client, queue string) repository.IPostEvents {
	if queue == "" {
		queue = "post-events"
	}
	return &PostEventPublisher{client: client, queue: queue}
}

func (p *PostEventPublisher) PublishPostEvent(ctx context.Context, evt *model.PostEvent) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode post event: %w", err)
	}

	sender, err := p.client.NewSender(p.queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		if err := sender.Close(ctx); err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender, ctx)

	if err := sender.SendMessage(ctx, &azservicebus.Message{Body: payload}, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending post event.")
		return err
	}
	return nil
}
