// Package chain submits NFTokenMint transactions to an XRP Ledger node over
// its JSON-RPC interface and waits for them to be validated.
package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/creatorhub/apiserver/config"
	"go.uber.org/zap"
)

const (
	// MaxURIBytes is the ledger's limit on the NFTokenMint URI field.
	MaxURIBytes = 256

	resultSuccess   = "tesSUCCESS"
	errTxnNotFound  = "txnNotFound"
	defaultPoll     = time.Second
	maxResponseBody = 4 << 20
)

// SubmissionError is a mint the ledger refused or failed. Message carries the
// ledger's own text and is safe to relay to the caller.
type SubmissionError struct {
	Code    string
	Message string
	Result  map[string]any
}

func (e *SubmissionError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type MintRequest struct {
	// URI is stored hex encoded on the token.
	URI   string
	Taxon uint32
	Flags uint32
}

type MintOutcome struct {
	TransactionHash string
	NFTokenID       *string
	Result          map[string]any
}

// XRPLClient talks to a rippled JSON-RPC endpoint using sign-and-submit with
// the configured wallet seed.
type XRPLClient struct {
	rpcURL       string
	account      string
	seed         string
	pollInterval time.Duration
	httpClient   *http.Client
	log          *zap.Logger
}

func NewXRPLClient(cfg config.LedgerConfig, log *zap.Logger) *XRPLClient {
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPoll
	}
	return &XRPLClient{
		rpcURL:       cfg.RPCURL,
		account:      cfg.WalletAddress,
		seed:         cfg.WalletSeed,
		pollInterval: poll,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		log:          log,
	}
}

// Mint submits an NFTokenMint and blocks until the transaction is validated,
// the ledger rejects it, or ctx ends. It never retries.
func (c *XRPLClient) Mint(ctx context.Context, req MintRequest) (MintOutcome, error) {
	if c.account == "" || c.seed == "" {
		return MintOutcome{}, &SubmissionError{Message: "ledger wallet is not configured"}
	}
	if len(req.URI) > MaxURIBytes {
		return MintOutcome{}, &SubmissionError{Code: "temMALFORMED", Message: fmt.Sprintf("uri exceeds %d bytes", MaxURIBytes)}
	}

	txJSON := map[string]any{
		"TransactionType": "NFTokenMint",
		"Account":         c.account,
		"NFTokenTaxon":    req.Taxon,
		"Flags":           req.Flags,
	}
	if req.URI != "" {
		txJSON["URI"] = strings.ToUpper(hex.EncodeToString([]byte(req.URI)))
	}

	submitted, err := c.call(ctx, "submit", map[string]any{
		"secret":  c.seed,
		"tx_json": txJSON,
	})
	if err != nil {
		return MintOutcome{}, err
	}

	engineResult, _ := submitted["engine_result"].(string)
	engineMessage, _ := submitted["engine_result_message"].(string)
	hash := nestedString(submitted, "tx_json", "hash")
	if isFinalFailure(engineResult) {
		return MintOutcome{}, &SubmissionError{Code: engineResult, Message: engineMessage, Result: submitted}
	}
	if hash == "" {
		return MintOutcome{}, &SubmissionError{Code: engineResult, Message: "ledger did not return a transaction hash", Result: submitted}
	}
	c.log.Info("nft mint submitted",
		zap.String("tx_hash", hash),
		zap.String("engine_result", engineResult),
	)

	validated, err := c.awaitValidation(ctx, hash)
	if err != nil {
		return MintOutcome{}, err
	}

	txResult := nestedString(validated, "meta", "TransactionResult")
	if txResult != resultSuccess {
		return MintOutcome{}, &SubmissionError{
			Code:    txResult,
			Message: fmt.Sprintf("transaction %s failed with %s", hash, txResult),
			Result:  validated,
		}
	}

	outcome := MintOutcome{TransactionHash: hash, Result: validated}
	if id := nestedString(validated, "meta", "nftoken_id"); id != "" {
		outcome.NFTokenID = &id
	}
	return outcome, nil
}

func (c *XRPLClient) awaitValidation(ctx context.Context, hash string) (map[string]any, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, notValidated(hash, ctx.Err())
		case <-ticker.C:
		}

		result, err := c.call(ctx, "tx", map[string]any{
			"transaction": hash,
			"binary":      false,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, notValidated(hash, ctx.Err())
			}
			var subErr *SubmissionError
			if errors.As(err, &subErr) && subErr.Code == errTxnNotFound {
				continue
			}
			return nil, err
		}
		if validated, _ := result["validated"].(bool); validated {
			return result, nil
		}
	}
}

func notValidated(hash string, cause error) *SubmissionError {
	return &SubmissionError{Message: fmt.Sprintf("transaction %s not validated: %v", hash, cause)}
}

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type rpcResponse struct {
	Result map[string]any `json:"result"`
}

// call performs one JSON-RPC request. Ledger level errors come back as
// *SubmissionError.
func (c *XRPLClient) call(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	body, err := json.Marshal(rpcRequest{Method: method, Params: []any{params}})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &SubmissionError{Message: fmt.Sprintf("ledger %s request failed: %v", method, err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &SubmissionError{Message: fmt.Sprintf("read ledger %s response: %v", method, err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &SubmissionError{Message: fmt.Sprintf("ledger %s returned HTTP %d", method, resp.StatusCode)}
	}

	var decoded rpcResponse
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded.Result == nil {
		return nil, &SubmissionError{Message: fmt.Sprintf("ledger %s returned malformed response", method)}
	}

	if status, _ := decoded.Result["status"].(string); status == "error" {
		code, _ := decoded.Result["error"].(string)
		message, _ := decoded.Result["error_message"].(string)
		if message == "" {
			message = code
		}
		return nil, &SubmissionError{Code: code, Message: message, Result: decoded.Result}
	}
	return decoded.Result, nil
}

// isFinalFailure reports engine results that guarantee the transaction will
// never reach a validated ledger.
func isFinalFailure(engineResult string) bool {
	for _, prefix := range []string{"tem", "tef", "tel"} {
		if strings.HasPrefix(engineResult, prefix) {
			return true
		}
	}
	return false
}

func nestedString(m map[string]any, keys ...string) string {
	var cur any = m
	for _, key := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = obj[key]
	}
	s, _ := cur.(string)
	return s
}
