package sui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sui-wallet-go/internal/metrics"
	"sui-wallet-go/pkg/signature"
)

type rpcCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type node struct {
	mu    sync.Mutex
	calls []rpcCall
}

func (n *node) Calls() []rpcCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]rpcCall(nil), n.calls...)
}

// fakeNode answers each method with a canned result or error and records calls
func fakeNode(t *testing.T, results map[string]string, errs map[string]*RPCError) (*httptest.Server, *node) {
	t.Helper()
	n := &node{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var req RPCRequest
		var call rpcCall
		if json.Unmarshal(raw, &req) != nil || json.Unmarshal(raw, &call) != nil || req.JSONRPC != "2.0" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		n.mu.Lock()
		n.calls = append(n.calls, call)
		n.mu.Unlock()

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if e, ok := errs[req.Method]; ok {
			resp["error"] = e
		} else if res, ok := results[req.Method]; ok {
			resp["result"] = json.RawMessage(res)
		} else {
			resp["error"] = &RPCError{Code: -32601, Message: "Method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, n
}

func newTestClient(url string, m *metrics.Metrics) *Client {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewClient(ClientConfig{Endpoint: url, Metrics: m}, log)
}

func params(t *testing.T, c rpcCall) []interface{} {
	t.Helper()
	out := make([]interface{}, len(c.Params))
	for i, p := range c.Params {
		require.NoError(t, json.Unmarshal(p, &out[i]))
	}
	return out
}

func TestExecuteTransactionBlock(t *testing.T) {
	srv, n := fakeNode(t, map[string]string{
		"sui_executeTransactionBlock": `{"digest":"GK3owFmAH4PLbsUKErznvvpV4GoaBdbrfYj376pbn6ZR","effects":{"status":{"status":"success"}},"confirmedLocalExecution":true}`,
	}, nil)
	m := metrics.NewMetrics()
	c := newTestClient(srv.URL, m)

	resp, err := c.ExecuteTransactionBlock(context.Background(), "AAEC", []signature.Serialized{"c2ln"},
		DefaultResponseOptions, "WaitForLocalExecution")
	require.NoError(t, err)
	assert.Equal(t, "GK3owFmAH4PLbsUKErznvvpV4GoaBdbrfYj376pbn6ZR", resp.Digest)
	assert.True(t, resp.Succeeded())
	require.NotNil(t, resp.ConfirmedLocalExecution)
	assert.True(t, *resp.ConfirmedLocalExecution)

	calls := n.Calls()
	require.Len(t, calls, 1)
	p := params(t, calls[0])
	require.Len(t, p, 4)
	assert.Equal(t, "AAEC", p[0])
	assert.Equal(t, []interface{}{"c2ln"}, p[1])
	assert.Equal(t, map[string]interface{}{"showEffects": true, "showBalanceChanges": true}, p[2])
	assert.Equal(t, "WaitForLocalExecution", p[3])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCRequests.WithLabelValues("sui_executeTransactionBlock", metrics.ResultSuccess)))
}

func TestRPCErrorIsReturned(t *testing.T) {
	srv, _ := fakeNode(t, nil, map[string]*RPCError{
		"sui_executeTransactionBlock": {Code: -32002, Message: "Transaction validator signing failed"},
	})
	m := metrics.NewMetrics()
	c := newTestClient(srv.URL, m)

	_, err := c.ExecuteTransactionBlock(context.Background(), "AAEC", nil, DefaultResponseOptions, "WaitForEffectsCert")
	require.Error(t, err)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32002, rpcErr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCRequests.WithLabelValues("sui_executeTransactionBlock", metrics.ResultFailure)))
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, nil).GetBalance(context.Background(), "0x1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP error 502")
}

func TestBuilders(t *testing.T) {
	txb := `{"txBytes":"AAEC","gas":[{"objectId":"0xgas","version":"7","digest":"dg"}],"inputObjects":[]}`
	srv, n := fakeNode(t, map[string]string{
		"unsafe_moveCall":       txb,
		"unsafe_transferObject": txb,
		"unsafe_transferSui":    txb,
	}, nil)
	c := newTestClient(srv.URL, nil)
	ctx := context.Background()

	tb, err := c.MoveCall(ctx, MoveCallRequest{
		Signer:    "0xa",
		PackageID: "0x2",
		Module:    "devnet_nft",
		Function:  "mint",
		Arguments: []interface{}{"name", "desc", "url"},
		GasBudget: 10000000,
	})
	require.NoError(t, err)
	require.Len(t, tb.Gas, 1)
	assert.Equal(t, "0xgas", tb.Gas[0].ObjectID)
	assert.Equal(t, "7", tb.Gas[0].Version.String())

	raw, err := tb.Decode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, raw)

	_, err = c.TransferObject(ctx, "0xa", "0xobj", "", 5000, "0xb")
	require.NoError(t, err)
	_, err = c.TransferSui(ctx, "0xa", "0xcoin", 5000, "0xb", 0)
	require.NoError(t, err)
	_, err = c.TransferSui(ctx, "0xa", "0xcoin", 5000, "0xb", 42)
	require.NoError(t, err)

	calls := n.Calls()
	require.Len(t, calls, 4)

	move := params(t, calls[0])
	assert.Equal(t, []interface{}{"0xa", "0x2", "devnet_nft", "mint", []interface{}{},
		[]interface{}{"name", "desc", "url"}, nil, "10000000"}, move)

	transfer := params(t, calls[1])
	assert.Equal(t, []interface{}{"0xa", "0xobj", nil, "5000", "0xb"}, transfer)

	assert.Nil(t, params(t, calls[2])[4])
	assert.Equal(t, "42", params(t, calls[3])[4])
}

func TestCoinBuilders(t *testing.T) {
	txb := `{"txBytes":"AAEC","gas":[],"inputObjects":[]}`
	srv, n := fakeNode(t, map[string]string{
		"unsafe_splitCoin":  txb,
		"unsafe_mergeCoins": txb,
		"unsafe_pay":        txb,
	}, nil)
	c := newTestClient(srv.URL, nil)
	ctx := context.Background()

	_, err := c.SplitCoin(ctx, "0xa", "0xcoin", []uint64{10, 20}, "", 5000)
	require.NoError(t, err)
	_, err = c.MergeCoins(ctx, "0xa", "0xc1", "0xc2", "0xgas", 5000)
	require.NoError(t, err)
	_, err = c.Pay(ctx, PayRequest{
		Signer:     "0xa",
		InputCoins: []string{"0xc1"},
		Recipients: []string{"0xb", "0xc"},
		Amounts:    []uint64{1, 2},
		GasBudget:  5000,
	})
	require.NoError(t, err)

	_, err = c.Pay(ctx, PayRequest{Signer: "0xa", InputCoins: []string{"0xc1"}, Recipients: []string{"0xb"}})
	assert.Error(t, err)
	_, err = c.Pay(ctx, PayRequest{Signer: "0xa", Recipients: []string{"0xb"}, Amounts: []uint64{1}})
	assert.Error(t, err)

	calls := n.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, []interface{}{"0xa", "0xcoin", []interface{}{"10", "20"}, nil, "5000"}, params(t, calls[0]))
	assert.Equal(t, []interface{}{"0xa", "0xc1", "0xc2", "0xgas", "5000"}, params(t, calls[1]))
	assert.Equal(t, []interface{}{"0xa", []interface{}{"0xc1"}, []interface{}{"0xb", "0xc"},
		[]interface{}{"1", "2"}, nil, "5000"}, params(t, calls[2]))
}

func TestGetCoins(t *testing.T) {
	srv, n := fakeNode(t, map[string]string{
		"suix_getCoins": `{"data":[{"coinType":"0x2::sui::SUI","coinObjectId":"0xc1","version":"3","digest":"d","balance":"100","previousTransaction":"p"}],"nextCursor":"0xc1","hasNextPage":true}`,
	}, nil)
	c := newTestClient(srv.URL, nil)

	page, err := c.GetCoins(context.Background(), "0xa", "", "", 0)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "0xc1", page.Data[0].CoinObjectID)
	assert.Equal(t, "100", page.Data[0].Balance)
	assert.True(t, page.HasNextPage)
	require.NotNil(t, page.NextCursor)

	_, err = c.GetCoins(context.Background(), "0xa", "", *page.NextCursor, 10)
	require.NoError(t, err)

	calls := n.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []interface{}{"0xa", "0x2::sui::SUI", nil, nil}, params(t, calls[0]))
	assert.Equal(t, []interface{}{"0xa", "0x2::sui::SUI", "0xc1", float64(10)}, params(t, calls[1]))
}

func TestGetBalance(t *testing.T) {
	srv, n := fakeNode(t, map[string]string{
		"suix_getBalance": `{"coinType":"0x2::sui::SUI","coinObjectCount":3,"totalBalance":"1500000000"}`,
	}, nil)
	c := newTestClient(srv.URL, nil)

	bal, err := c.GetBalance(context.Background(), "0xa", "")
	require.NoError(t, err)
	assert.Equal(t, "1500000000", bal.TotalBalance)
	assert.Equal(t, 3, bal.CoinObjectCount)
	assert.Equal(t, []interface{}{"0xa", SuiCoinType}, params(t, n.Calls()[0]))
}

func TestGetReferenceGasPrice(t *testing.T) {
	srv, _ := fakeNode(t, map[string]string{"suix_getReferenceGasPrice": `"750"`}, nil)
	price, err := newTestClient(srv.URL, nil).GetReferenceGasPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(750), price)
}

func TestNullResult(t *testing.T) {
	srv, _ := fakeNode(t, map[string]string{"sui_getTransactionBlock": `null`}, nil)
	_, err := newTestClient(srv.URL, nil).GetTransactionBlock(context.Background(), "d", TransactionBlockResponseOptions{})
	assert.Error(t, err)
}

func TestSubmitterAndBuilder(t *testing.T) {
	srv, n := fakeNode(t, map[string]string{
		"unsafe_transferSui":          `{"txBytes":"AAEC","gas":[],"inputObjects":[]}`,
		"sui_executeTransactionBlock": `{"digest":"abc"}`,
	}, nil)
	c := newTestClient(srv.URL, nil)
	ctx := context.Background()

	build := Builder(func(ctx context.Context) (*TransactionBytes, error) {
		return c.TransferSui(ctx, "0xa", "0xcoin", 1000, "0xb", 1)
	})
	tx, err := build(ctx)
	require.NoError(t, err)

	submit := c.Submitter(DefaultResponseOptions, "WaitForEffectsCert")
	resp, err := submit(ctx, tx, "c2ln")
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.(*TransactionBlockResponse).Digest)

	exec := params(t, n.Calls()[1])
	assert.Equal(t, base64.StdEncoding.EncodeToString(tx), exec[0])
	assert.Equal(t, []interface{}{"c2ln"}, exec[1])
}

func TestDecodeRejectsEmpty(t *testing.T) {
	_, err := (&TransactionBytes{TxBytes: ""}).Decode()
	assert.Error(t, err)
	_, err = (&TransactionBytes{TxBytes: "!!"}).Decode()
	assert.Error(t, err)
}
