package sui

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// RPCRequest represents a JSON-RPC request
type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// RPCResponse represents a JSON-RPC response
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface
func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// ObjectRef identifies a specific version of an object
type ObjectRef struct {
	ObjectID string      `json:"objectId"`
	Version  json.Number `json:"version"`
	Digest   string      `json:"digest"`
}

// TransactionBytes is what the node's builder endpoints return: unsigned BCS
// TransactionData plus the objects it selected.
type TransactionBytes struct {
	TxBytes      string            `json:"txBytes"`
	Gas          []ObjectRef       `json:"gas"`
	InputObjects []json.RawMessage `json:"inputObjects"`
}

// Decode returns the raw transaction bytes to be signed
func (tb *TransactionBytes) Decode() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(tb.TxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode txBytes: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty txBytes")
	}
	return raw, nil
}

// TransactionBlockResponseOptions selects which parts of a transaction block the node returns
type TransactionBlockResponseOptions struct {
	ShowInput          bool `json:"showInput,omitempty"`
	ShowRawInput       bool `json:"showRawInput,omitempty"`
	ShowEffects        bool `json:"showEffects,omitempty"`
	ShowEvents         bool `json:"showEvents,omitempty"`
	ShowObjectChanges  bool `json:"showObjectChanges,omitempty"`
	ShowBalanceChanges bool `json:"showBalanceChanges,omitempty"`
}

// DefaultResponseOptions asks for effects and balance changes
var DefaultResponseOptions = TransactionBlockResponseOptions{
	ShowEffects:        true,
	ShowBalanceChanges: true,
}

// TransactionBlockResponse is the node's view of an executed transaction
type TransactionBlockResponse struct {
	Digest                  string          `json:"digest"`
	Transaction             json.RawMessage `json:"transaction,omitempty"`
	RawTransaction          string          `json:"rawTransaction,omitempty"`
	Effects                 *Effects        `json:"effects,omitempty"`
	Events                  json.RawMessage `json:"events,omitempty"`
	ObjectChanges           json.RawMessage `json:"objectChanges,omitempty"`
	BalanceChanges          []BalanceChange `json:"balanceChanges,omitempty"`
	TimestampMs             string          `json:"timestampMs,omitempty"`
	Checkpoint              string          `json:"checkpoint,omitempty"`
	ConfirmedLocalExecution *bool           `json:"confirmedLocalExecution,omitempty"`
	Errors                  []string        `json:"errors,omitempty"`
}

// Effects carries the execution status; the rest of the effects are left raw
type Effects struct {
	Status struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	} `json:"status"`
	GasUsed json.RawMessage `json:"gasUsed,omitempty"`
}

// Succeeded reports whether the node executed the transaction successfully
func (r *TransactionBlockResponse) Succeeded() bool {
	return r.Effects != nil && r.Effects.Status.Status == "success"
}

// BalanceChange is one owner/coin delta caused by a transaction
type BalanceChange struct {
	Owner    json.RawMessage `json:"owner"`
	CoinType string          `json:"coinType"`
	Amount   string          `json:"amount"`
}

// Balance is the suix_getBalance result
type Balance struct {
	CoinType        string `json:"coinType"`
	CoinObjectCount int    `json:"coinObjectCount"`
	TotalBalance    string `json:"totalBalance"`
}

// MoveCallRequest describes an unsafe_moveCall build request
type MoveCallRequest struct {
	Signer        string
	PackageID     string
	Module        string
	Function      string
	TypeArguments []string
	Arguments     []interface{}
	Gas           string // optional gas coin object id
	GasBudget     uint64
}

// Coin is one coin object as listed by suix_getCoins
type Coin struct {
	CoinType            string      `json:"coinType"`
	CoinObjectID        string      `json:"coinObjectId"`
	Version             json.Number `json:"version"`
	Digest              string      `json:"digest"`
	Balance             string      `json:"balance"`
	PreviousTransaction string      `json:"previousTransaction"`
}

// CoinPage is one page of suix_getCoins
type CoinPage struct {
	Data        []Coin  `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

// PayRequest describes an unsafe_pay build request; Recipients and Amounts pair up
type PayRequest struct {
	Signer     string
	InputCoins []string
	Recipients []string
	Amounts    []uint64
	Gas        string // optional gas coin object id
	GasBudget  uint64
}
