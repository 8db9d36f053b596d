package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ai-toolkit-be/internal/dto"
	"ai-toolkit-be/internal/pkg/mailer"
	"ai-toolkit-be/internal/repository/specification"
	"ai-toolkit-be/internal/repository/unitofwork"
	"ai-toolkit-be/pkg/events"
	pktNats "ai-toolkit-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains committed-debit messages off the internal bus
// and handles the slow side effects (alert mail, external events) away
// from the request path.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	emailService   mailer.IEmailService
	eventPublisher *pktNats.Publisher
	lowThreshold   int64
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	eventPublisher *pktNats.Publisher,
	lowThreshold int64,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		lowThreshold:   lowThreshold,
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
	var payload dto.PublishEnergyDebitedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal debit message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	// The alert fires on the crossing, not on every debit below the line:
	// balance before this debit was above the threshold, balance after is
	// at or under it.
	balanceBefore := payload.NewBalance + payload.Amount
	if payload.NewBalance > cs.lowThreshold || balanceBefore <= cs.lowThreshold {
		msg.Ack()
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: payload.UserId})
	if err != nil {
		log.Printf("[ERROR] Failed to load user %s: %v", payload.UserId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if user == nil {
		msg.Ack() // User deleted? Ack.
		return
	}

	if cs.emailService != nil {
		if err := cs.emailService.SendLowEnergyAlert(user.Email, payload.NewBalance, cs.lowThreshold); err != nil {
			log.Printf("[ERROR] Failed to send low-energy alert to %s: %v", user.Email, err)
			msg.Nack()
			return
		}
	}

	if cs.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeEnergyLow,
			Data: map[string]interface{}{
				"user_id":     payload.UserId,
				"balance":     payload.NewBalance,
				"threshold":   cs.lowThreshold,
				"occurred_at": time.Now(),
			},
			OccurredAt: time.Now(),
		}
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish %s event: %v\n", events.TypeEnergyLow, err)
		}
	}

	log.Printf("[INFO] Low-energy alert handled for user %s (balance %d)", payload.UserId, payload.NewBalance)
	msg.Ack()
}
