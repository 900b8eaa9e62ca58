// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ai-deskmate-be/internal/dto"
	"ai-deskmate-be/internal/pkg/mailer"
	"ai-deskmate-be/pkg/events"
	pktNats "ai-deskmate-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	catalog        ICatalogService
	eventPublisher *pktNats.Publisher
	emailService   mailer.IEmailService
	alertEmail     string
	instanceId     string
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	catalog ICatalogService,
	eventPublisher *pktNats.Publisher,
	emailService mailer.IEmailService,
	alertEmail string,
	instanceId string,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		catalog:        catalog,
		eventPublisher: eventPublisher,
		emailService:   emailService,
		alertEmail:     alertEmail,
		instanceId:     instanceId,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PrototypeRefreshMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal refresh message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Rebuilding prototype snapshot (trigger: %s %s)", payload.Action, payload.PrototypeId)

	snap, err := cs.catalog.Rebuild(ctx)
	if err != nil {
		log.Printf("[ERROR] Prototype snapshot rebuild failed: %v", err)
		cs.alertFailure(payload, err)
		msg.Nack() // Retriable: the old snapshot keeps serving meanwhile
		return
	}

	if cs.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypePrototypeCatalogUpdated,
			Data: map[string]interface{}{
				"instance_id":      cs.instanceId,
				"snapshot_version": snap.Version(),
				"examples":         snap.Count(),
				"trigger_action":   payload.Action,
				"prototype_id":     payload.PrototypeId.String(),
			},
			OccurredAt: time.Now(),
		}
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[ERROR] Failed to publish catalog update event: %v", err)
		}
	}

	log.Printf("[SUCCESS] Snapshot %s live with %d examples", snap.Version(), snap.Count())
	msg.Ack()
}

func (cs *consumerService) alertFailure(payload dto.PrototypeRefreshMessage, cause error) {
	if cs.emailService == nil || cs.alertEmail == "" {
		return
	}
	detail := fmt.Sprintf("trigger: %s %s\nerror: %v", payload.Action, payload.PrototypeId, cause)
	if err := cs.emailService.SendCatalogRefreshAlert(cs.alertEmail, detail); err != nil {
		log.Printf("[ERROR] Failed to send catalog refresh alert: %v", err)
	}
}
