package services

import (
	"context"

	"go.uber.org/zap"
)

// EventPublisher emits domain events after a state change committed.
type EventPublisher interface {
	PublishJSON(ctx context.Context, topic string, payload any) (string, error)
}

// publishEvent never fails the caller. A nil publisher disables events.
func publishEvent(ctx context.Context, pub EventPublisher, log *zap.Logger, topic string, payload any) {
	if pub == nil {
		return
	}
	id, err := pub.PublishJSON(ctx, topic, payload)
	if err != nil {
		log.Warn("publish event failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	log.Debug("event published", zap.String("topic", topic), zap.String("message_id", id))
}

type UserRegisteredEvent struct {
	UserID               string  `json:"user_id"`
	Username             string  `json:"username"`
	Role                 string  `json:"role"`
	ReferringAffiliateID *string `json:"referring_affiliate_id,omitempty"`
}

type NFTMintedEvent struct {
	UserID          string  `json:"user_id"`
	TransactionHash string  `json:"transaction_hash"`
	NFTokenID       *string `json:"nft_token_id,omitempty"`
	MetadataURI     string  `json:"metadata_uri"`
}
