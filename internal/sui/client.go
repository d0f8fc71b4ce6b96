package sui

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"sui-wallet-go/internal/metrics"
	"sui-wallet-go/pkg/signature"
)

// SuiCoinType is the native coin type used when no coin type is given
const SuiCoinType = "0x2::sui::SUI"

// Client represents a Sui fullnode JSON-RPC client
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
	metrics    *metrics.Metrics
	nextID     atomic.Uint64
}

// ClientConfig contains configuration for the Sui client
type ClientConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	Metrics  *metrics.Metrics
}

// NewClient creates a new Sui RPC client
func NewClient(config ClientConfig, logger *logrus.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		endpoint: config.Endpoint,
		apiKey:   config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  logger,
		metrics: config.Metrics,
	}
}

// Endpoint returns the fullnode URL this client talks to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// call sends method and decodes the result into out
func (c *Client) call(ctx context.Context, method string, out interface{}, params ...interface{}) error {
	resp, err := c.makeRequest(ctx, method, params)
	c.metrics.ObserveRPC(method, err)
	if err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}

	if out == nil {
		return nil
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return fmt.Errorf("%s returned no result", method)
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s result: %w", method, err)
	}
	return nil
}

// makeRequest makes a JSON-RPC request to the fullnode
func (c *Client) makeRequest(ctx context.Context, method string, params []interface{}) (*RPCResponse, error) {
	if params == nil {
		params = []interface{}{}
	}
	request := RPCRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"endpoint": c.endpoint,
		"id":       request.ID,
	}).Debug("Making RPC request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(responseBody))
	}

	var rpcResponse RPCResponse
	if err := json.Unmarshal(responseBody, &rpcResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if rpcResponse.Error != nil {
		return nil, rpcResponse.Error
	}

	return &rpcResponse, nil
}

// ExecuteTransactionBlock submits signed transaction bytes
func (c *Client) ExecuteTransactionBlock(ctx context.Context, txBytes string, signatures []signature.Serialized,
	options TransactionBlockResponseOptions, requestType string) (*TransactionBlockResponse, error) {

	sigs := make([]string, len(signatures))
	for i, s := range signatures {
		sigs[i] = s.String()
	}

	var result TransactionBlockResponse
	if err := c.call(ctx, "sui_executeTransactionBlock", &result, txBytes, sigs, options, requestType); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTransactionBlock fetches an executed transaction by digest
func (c *Client) GetTransactionBlock(ctx context.Context, digest string, options TransactionBlockResponseOptions) (*TransactionBlockResponse, error) {
	var result TransactionBlockResponse
	if err := c.call(ctx, "sui_getTransactionBlock", &result, digest, options); err != nil {
		return nil, err
	}
	return &result, nil
}

// MoveCall asks the node to build an unsigned Move call transaction
func (c *Client) MoveCall(ctx context.Context, req MoveCallRequest) (*TransactionBytes, error) {
	typeArgs := req.TypeArguments
	if typeArgs == nil {
		typeArgs = []string{}
	}
	args := req.Arguments
	if args == nil {
		args = []interface{}{}
	}

	var result TransactionBytes
	if err := c.call(ctx, "unsafe_moveCall", &result,
		req.Signer, req.PackageID, req.Module, req.Function, typeArgs, args,
		optionalString(req.Gas), strconv.FormatUint(req.GasBudget, 10)); err != nil {
		return nil, err
	}
	return &result, nil
}

// TransferObject asks the node to build an unsigned object transfer
func (c *Client) TransferObject(ctx context.Context, signer, objectID, gas string, gasBudget uint64, recipient string) (*TransactionBytes, error) {
	var result TransactionBytes
	if err := c.call(ctx, "unsafe_transferObject", &result,
		signer, objectID, optionalString(gas), strconv.FormatUint(gasBudget, 10), recipient); err != nil {
		return nil, err
	}
	return &result, nil
}

// TransferSui asks the node to build an unsigned SUI transfer paid from suiObjectID.
// A zero amount transfers the whole coin.
func (c *Client) TransferSui(ctx context.Context, signer, suiObjectID string, gasBudget uint64, recipient string, amount uint64) (*TransactionBytes, error) {
	var amountParam interface{}
	if amount > 0 {
		amountParam = strconv.FormatUint(amount, 10)
	}

	var result TransactionBytes
	if err := c.call(ctx, "unsafe_transferSui", &result,
		signer, suiObjectID, strconv.FormatUint(gasBudget, 10), recipient, amountParam); err != nil {
		return nil, err
	}
	return &result, nil
}

// SplitCoin asks the node to build a transaction splitting coinID into new coins of the given amounts
func (c *Client) SplitCoin(ctx context.Context, signer, coinID string, amounts []uint64, gas string, gasBudget uint64) (*TransactionBytes, error) {
	var result TransactionBytes
	if err := c.call(ctx, "unsafe_splitCoin", &result,
		signer, coinID, formatAmounts(amounts), optionalString(gas), strconv.FormatUint(gasBudget, 10)); err != nil {
		return nil, err
	}
	return &result, nil
}

// MergeCoins asks the node to build a transaction merging coinToMerge into primaryCoin
func (c *Client) MergeCoins(ctx context.Context, signer, primaryCoin, coinToMerge, gas string, gasBudget uint64) (*TransactionBytes, error) {
	var result TransactionBytes
	if err := c.call(ctx, "unsafe_mergeCoins", &result,
		signer, primaryCoin, coinToMerge, optionalString(gas), strconv.FormatUint(gasBudget, 10)); err != nil {
		return nil, err
	}
	return &result, nil
}

// Pay asks the node to build a transaction paying Amounts[i] to Recipients[i] from InputCoins
func (c *Client) Pay(ctx context.Context, req PayRequest) (*TransactionBytes, error) {
	if len(req.InputCoins) == 0 {
		return nil, fmt.Errorf("unsafe_pay needs at least one input coin")
	}
	if len(req.Recipients) == 0 || len(req.Recipients) != len(req.Amounts) {
		return nil, fmt.Errorf("unsafe_pay needs one amount per recipient, got %d recipients and %d amounts",
			len(req.Recipients), len(req.Amounts))
	}

	var result TransactionBytes
	if err := c.call(ctx, "unsafe_pay", &result,
		req.Signer, req.InputCoins, req.Recipients, formatAmounts(req.Amounts),
		optionalString(req.Gas), strconv.FormatUint(req.GasBudget, 10)); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCoins lists owner's coins of coinType, one page at a time. Pass the
// previous page's NextCursor as cursor; limit 0 lets the node choose.
func (c *Client) GetCoins(ctx context.Context, owner, coinType, cursor string, limit uint) (*CoinPage, error) {
	if coinType == "" {
		coinType = SuiCoinType
	}
	var limitParam interface{}
	if limit > 0 {
		limitParam = limit
	}

	var result CoinPage
	if err := c.call(ctx, "suix_getCoins", &result, owner, coinType, optionalString(cursor), limitParam); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBalance returns the total balance of coinType owned by owner
func (c *Client) GetBalance(ctx context.Context, owner, coinType string) (*Balance, error) {
	if coinType == "" {
		coinType = SuiCoinType
	}

	var result Balance
	if err := c.call(ctx, "suix_getBalance", &result, owner, coinType); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetReferenceGasPrice returns the current epoch's reference gas price in MIST
func (c *Client) GetReferenceGasPrice(ctx context.Context) (uint64, error) {
	var price string
	if err := c.call(ctx, "suix_getReferenceGasPrice", &price); err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(price, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid gas price %q: %w", price, err)
	}
	return v, nil
}

// Submitter returns a function that executes a single-signature transaction.
// Its shape matches the signer's submit collaborator.
func (c *Client) Submitter(options TransactionBlockResponseOptions, requestType string) func(ctx context.Context, txBytes []byte, sig signature.Serialized) (interface{}, error) {
	return func(ctx context.Context, txBytes []byte, sig signature.Serialized) (interface{}, error) {
		return c.ExecuteTransactionBlock(ctx, base64.StdEncoding.EncodeToString(txBytes), []signature.Serialized{sig}, options, requestType)
	}
}

// Builder adapts a node build call into the signer's build collaborator
func Builder(build func(ctx context.Context) (*TransactionBytes, error)) func(ctx context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		tb, err := build(ctx)
		if err != nil {
			return nil, err
		}
		return tb.Decode()
	}
}

func formatAmounts(amounts []uint64) []string {
	out := make([]string, len(amounts))
	for i, a := range amounts {
		out[i] = strconv.FormatUint(a, 10)
	}
	return out
}

func optionalString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
