package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creatorhub/apiserver/internal/chain"
	"github.com/creatorhub/apiserver/internal/mq"
	"github.com/creatorhub/apiserver/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	metadataKeyPrefix = "nft-metadata"
	cleanupTimeout    = 10 * time.Second
	mintMessage       = "NFT mint transaction validated on the XRP Ledger."
)

// Minter submits a mint to the ledger and waits for the outcome.
type Minter interface {
	Mint(ctx context.Context, req chain.MintRequest) (chain.MintOutcome, error)
}

// MetadataStore keeps NFT metadata documents addressable by URL.
type MetadataStore interface {
	PutJSON(ctx context.Context, key string, v any) (string, error)
	Delete(ctx context.Context, key string) error
}

type NFTService struct {
	minter   Minter
	metadata MetadataStore
	events   EventPublisher
	log      *zap.Logger
}

// NewNFTService wires the minting flow. A nil metadata store makes the
// image link the token URI.
func NewNFTService(minter Minter, metadata MetadataStore, events EventPublisher, log *zap.Logger) *NFTService {
	return &NFTService{
		minter:   minter,
		metadata: metadata,
		events:   events,
		log:      log,
	}
}

// Mint publishes the metadata document and mints a token pointing at it on
// behalf of user. Ledger failures come back as *chain.SubmissionError.
func (s *NFTService) Mint(ctx context.Context, user types.User, meta types.NFTMetadata) (types.MintResult, error) {
	if err := validateMetadata(meta); err != nil {
		return types.MintResult{}, err
	}

	uri := strings.TrimSpace(meta.Image)
	var key string
	if s.metadata != nil {
		key = fmt.Sprintf("%s/%s/%s.json", metadataKeyPrefix, user.ID, uuid.NewString())
		url, err := s.metadata.PutJSON(ctx, key, meta)
		if err != nil {
			return types.MintResult{}, fmt.Errorf("store nft metadata: %w", err)
		}
		uri = url
	}
	if len(uri) > chain.MaxURIBytes {
		s.discardMetadata(ctx, key)
		return types.MintResult{}, validation(fmt.Sprintf("token uri must be at most %d bytes", chain.MaxURIBytes))
	}

	s.log.Info("minting nft",
		zap.String("user_id", user.ID),
		zap.String("uri", uri),
	)
	outcome, err := s.minter.Mint(ctx, chain.MintRequest{URI: uri})
	if err != nil {
		s.discardMetadata(ctx, key)
		var subErr *chain.SubmissionError
		if errors.As(err, &subErr) {
			s.log.Warn("nft mint failed",
				zap.String("user_id", user.ID),
				zap.String("ledger_code", subErr.Code),
				zap.String("ledger_message", subErr.Message),
			)
		}
		return types.MintResult{}, err
	}

	s.log.Info("nft minted",
		zap.String("user_id", user.ID),
		zap.String("tx_hash", outcome.TransactionHash),
	)
	publishEvent(ctx, s.events, s.log, mq.TopicNFTMinted, NFTMintedEvent{
		UserID:          user.ID,
		TransactionHash: outcome.TransactionHash,
		NFTokenID:       outcome.NFTokenID,
		MetadataURI:     uri,
	})

	return types.MintResult{
		Message:            mintMessage,
		TransactionHash:    outcome.TransactionHash,
		NFTokenID:          outcome.NFTokenID,
		InitiatedByUser:    user.Username,
		MetadataURI:        uri,
		XRPLResponseResult: outcome.Result,
	}, nil
}

// discardMetadata removes an uploaded document whose mint did not happen.
func (s *NFTService) discardMetadata(ctx context.Context, key string) {
	if s.metadata == nil || key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := s.metadata.Delete(ctx, key); err != nil {
		s.log.Warn("delete nft metadata failed", zap.String("key", key), zap.Error(err))
	}
}

func validateMetadata(meta types.NFTMetadata) error {
	if strings.TrimSpace(meta.Name) == "" {
		return validation("name is required")
	}
	if strings.TrimSpace(meta.Description) == "" {
		return validation("description is required")
	}
	if strings.TrimSpace(meta.Image) == "" {
		return validation("image is required")
	}
	for i, attr := range meta.Attributes {
		if strings.TrimSpace(attr.TraitType) == "" || strings.TrimSpace(attr.Value) == "" {
			return validation(fmt.Sprintf("attributes[%d] needs trait_type and value", i))
		}
	}
	return nil
}
