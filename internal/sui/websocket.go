package sui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	wsReadLimit    = 1 << 20
	wsPingInterval = 30 * time.Second
	wsReadTimeout  = 90 * time.Second
	wsNotifyBuffer = 64
)

// ErrWSClosed is returned for requests on a closed or dropped connection
var ErrWSClosed = errors.New("websocket connection closed")

// WSClient speaks JSON-RPC over a fullnode websocket and fans out subscription notifications
type WSClient struct {
	url    string
	conn   *websocket.Conn
	logger *logrus.Logger

	writeMu sync.Mutex

	mu            sync.Mutex
	nextID        uint64
	pending       map[uint64]chan wsMessage
	subscriptions map[uint64]*Subscription
	err           error

	done chan struct{}
}

// Subscription delivers the result of every notification for one subscription
type Subscription struct {
	ID            uint64
	Method        string
	Notifications <-chan json.RawMessage

	ch chan json.RawMessage
}

type wsMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type wsNotification struct {
	Subscription uint64          `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

// WebsocketURL turns a fullnode http(s) URL into its ws(s) form
func WebsocketURL(rpcURL string) (string, error) {
	u, err := url.Parse(rpcURL)
	if err != nil {
		return "", fmt.Errorf("invalid rpc url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported rpc url scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// DialWS connects to a fullnode websocket endpoint
func DialWS(ctx context.Context, wsURL string, logger *logrus.Logger) (*WSClient, error) {
	logger.WithField("url", wsURL).Debug("Connecting to Sui websocket")

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			logger.WithFields(logrus.Fields{
				"status_code": resp.StatusCode,
				"url":         wsURL,
			}).Error("Websocket connection failed")
		}
		return nil, fmt.Errorf("failed to connect to websocket: %w", err)
	}

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	ws := &WSClient{
		url:           wsURL,
		conn:          conn,
		logger:        logger,
		pending:       make(map[uint64]chan wsMessage),
		subscriptions: make(map[uint64]*Subscription),
		done:          make(chan struct{}),
	}

	go ws.readLoop()
	go ws.pingLoop()

	logger.WithField("url", wsURL).Info("Websocket connected")
	return ws, nil
}

// SubscribeTransactions streams effects of transactions matching filter, e.g. {"FromAddress": "0x.."}
func (ws *WSClient) SubscribeTransactions(ctx context.Context, filter interface{}) (*Subscription, error) {
	return ws.Subscribe(ctx, "suix_subscribeTransaction", filter)
}

// SubscribeEvents streams events matching filter, e.g. {"Sender": "0x.."}
func (ws *WSClient) SubscribeEvents(ctx context.Context, filter interface{}) (*Subscription, error) {
	return ws.Subscribe(ctx, "suix_subscribeEvent", filter)
}

// Subscribe sends a subscription request and waits for the node to assign an id
func (ws *WSClient) Subscribe(ctx context.Context, method string, params ...interface{}) (*Subscription, error) {
	result, err := ws.request(ctx, method, params)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", method, err)
	}

	var id uint64
	if err := json.Unmarshal(result, &id); err != nil {
		return nil, fmt.Errorf("invalid subscription id %s: %w", string(result), err)
	}

	ch := make(chan json.RawMessage, wsNotifyBuffer)
	sub := &Subscription{ID: id, Method: method, Notifications: ch, ch: ch}

	ws.mu.Lock()
	ws.subscriptions[id] = sub
	ws.mu.Unlock()

	ws.logger.WithFields(logrus.Fields{
		"method":       method,
		"subscription": id,
	}).Info("Websocket subscription confirmed")
	return sub, nil
}

// Unsubscribe cancels sub and closes its notification channel
func (ws *WSClient) Unsubscribe(ctx context.Context, sub *Subscription) error {
	method := strings.Replace(sub.Method, "_subscribe", "_unsubscribe", 1)

	ws.mu.Lock()
	_, active := ws.subscriptions[sub.ID]
	delete(ws.subscriptions, sub.ID)
	ws.mu.Unlock()

	if !active {
		return fmt.Errorf("subscription %d not found", sub.ID)
	}
	close(sub.ch)

	if _, err := ws.request(ctx, method, []interface{}{sub.ID}); err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	return nil
}

// Done is closed when the connection ends
func (ws *WSClient) Done() <-chan struct{} {
	return ws.done
}

// Err returns why the connection ended, nil while it is open
func (ws *WSClient) Err() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.err
}

// Close shuts the connection down
func (ws *WSClient) Close() error {
	ws.writeMu.Lock()
	_ = ws.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	ws.writeMu.Unlock()

	err := ws.conn.Close()
	<-ws.done
	return err
}

func (ws *WSClient) request(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}

	reply := make(chan wsMessage, 1)

	ws.mu.Lock()
	if ws.err != nil {
		ws.mu.Unlock()
		return nil, ws.err
	}
	ws.nextID++
	id := ws.nextID
	ws.pending[id] = reply
	ws.mu.Unlock()

	defer func() {
		ws.mu.Lock()
		delete(ws.pending, id)
		ws.mu.Unlock()
	}()

	data, err := json.Marshal(RPCRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ws.writeMu.Lock()
	err = ws.conn.WriteMessage(websocket.TextMessage, data)
	ws.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	select {
	case msg := <-reply:
		if msg.Error != nil {
			return nil, msg.Error
		}
		return msg.Result, nil
	case <-ws.done:
		return nil, ErrWSClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (ws *WSClient) readLoop() {
	var readErr error
	defer func() {
		ws.mu.Lock()
		if readErr == nil || websocket.IsCloseError(readErr, websocket.CloseNormalClosure) {
			ws.err = ErrWSClosed
		} else {
			ws.err = fmt.Errorf("%w: %v", ErrWSClosed, readErr)
		}
		for id, sub := range ws.subscriptions {
			close(sub.ch)
			delete(ws.subscriptions, id)
		}
		ws.mu.Unlock()
		close(ws.done)
	}()

	for {
		_, data, err := ws.conn.ReadMessage()
		if err != nil {
			readErr = err
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ws.logger.WithError(err).Warn("Websocket read error")
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			ws.logger.WithError(err).Warn("Failed to unmarshal websocket message")
			continue
		}
		ws.dispatch(msg)
	}
}

func (ws *WSClient) dispatch(msg wsMessage) {
	if msg.ID != nil {
		ws.mu.Lock()
		reply, ok := ws.pending[*msg.ID]
		ws.mu.Unlock()
		if !ok {
			return
		}
		select {
		case reply <- msg:
		default:
			ws.logger.WithField("id", *msg.ID).Warn("Duplicate websocket reply dropped")
		}
		return
	}

	if msg.Method == "" {
		return
	}

	var n wsNotification
	if err := json.Unmarshal(msg.Params, &n); err != nil {
		ws.logger.WithError(err).WithField("method", msg.Method).Warn("Malformed notification")
		return
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	sub, ok := ws.subscriptions[n.Subscription]
	if !ok {
		return
	}

	select {
	case sub.ch <- n.Result:
	default:
		ws.logger.WithField("subscription", n.Subscription).Warn("Notification dropped, consumer too slow")
	}
}

func (ws *WSClient) pingLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ws.done:
			return
		case <-ticker.C:
			ws.writeMu.Lock()
			err := ws.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			ws.writeMu.Unlock()
			if err != nil {
				ws.logger.WithError(err).Debug("Websocket ping failed")
			}
		}
	}
}
