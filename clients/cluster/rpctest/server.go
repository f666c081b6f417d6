// Package rpctest provides an in-process solana json-rpc endpoint for tests.
package rpctest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Error is a json-rpc error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type Handler func(params []json.RawMessage) (interface{}, *Error)

type request struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Server answers json-rpc calls from registered handlers. Unknown methods get a -32601 error.
type Server struct {
	*httptest.Server

	mutex    sync.Mutex
	handlers map[string]Handler
	calls    map[string]int
}

func NewServer() *Server {
	s := &Server{
		handlers: map[string]Handler{},
		calls:    map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	return s
}

func (s *Server) Handle(method string, handler Handler) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.handlers[method] = handler
}

// Calls returns how often a method was called.
func (s *Server) Calls(method string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.calls[method]
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	req := &request{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mutex.Lock()
	s.calls[req.Method]++
	handler := s.handlers[req.Method]
	s.mutex.Unlock()

	res := &response{
		JSONRPC: "2.0",
		ID:      req.ID,
	}
	if handler == nil {
		res.Error = &Error{Code: -32601, Message: fmt.Sprintf("Method not found: %v", req.Method)}
	} else {
		res.Result, res.Error = handler(req.Params)
		if res.Result == nil && res.Error == nil {
			res.Result = json.RawMessage("null")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// Context wraps a value the way rpc methods with a context slot return it.
func Context(slot uint64, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": slot},
		"value":   value,
	}
}

// DecodeTransaction reads the base64 transaction of a sendTransaction call.
func DecodeTransaction(params []json.RawMessage) (*solana.Transaction, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("missing transaction param")
	}

	var encoded string
	if err := json.Unmarshal(params[0], &encoded); err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	return solana.TransactionFromDecoder(bin.NewBinDecoder(data))
}

// Cluster is a minimal healthy node: it accepts every transaction and reports it with ConfirmationStatus.
type Cluster struct {
	*Server

	Slot                 uint64
	BlockHeight          uint64
	LastValidBlockHeight uint64
	Blockhash            solana.Hash
	ConfirmationStatus   string

	stateMutex sync.Mutex
	sent       []*solana.Transaction
	accounts   map[solana.PublicKey][]byte
}

func NewCluster() *Cluster {
	c := &Cluster{
		Server:               NewServer(),
		Slot:                 100,
		BlockHeight:          90,
		LastValidBlockHeight: 240,
		Blockhash:            solana.Hash{7, 7, 7},
		ConfirmationStatus:   "confirmed",
		accounts:             map[solana.PublicKey][]byte{},
	}

	c.Handle("getVersion", func(params []json.RawMessage) (interface{}, *Error) {
		return map[string]interface{}{"solana-core": "1.18.26", "feature-set": 3241752014}, nil
	})
	c.Handle("getHealth", func(params []json.RawMessage) (interface{}, *Error) {
		return "ok", nil
	})
	c.Handle("getSlot", func(params []json.RawMessage) (interface{}, *Error) {
		return c.Slot, nil
	})
	c.Handle("getBlockHeight", func(params []json.RawMessage) (interface{}, *Error) {
		return c.BlockHeight, nil
	})
	c.Handle("getBalance", func(params []json.RawMessage) (interface{}, *Error) {
		return Context(c.Slot, 2_000_000_000), nil
	})
	c.Handle("getLatestBlockhash", func(params []json.RawMessage) (interface{}, *Error) {
		return Context(c.Slot, map[string]interface{}{
			"blockhash":            c.Blockhash.String(),
			"lastValidBlockHeight": c.LastValidBlockHeight,
		}), nil
	})
	c.Handle("sendTransaction", func(params []json.RawMessage) (interface{}, *Error) {
		tx, err := DecodeTransaction(params)
		if err != nil {
			return nil, &Error{Code: -32602, Message: err.Error()}
		}

		c.stateMutex.Lock()
		c.sent = append(c.sent, tx)
		c.stateMutex.Unlock()

		return tx.Signatures[0].String(), nil
	})
	c.Handle("getSignatureStatuses", func(params []json.RawMessage) (interface{}, *Error) {
		var signatures []string
		if len(params) > 0 {
			json.Unmarshal(params[0], &signatures)
		}

		statuses := make([]interface{}, len(signatures))
		for i := range signatures {
			statuses[i] = map[string]interface{}{
				"slot":               c.Slot,
				"confirmations":      nil,
				"err":                nil,
				"confirmationStatus": c.ConfirmationStatus,
			}
		}
		return Context(c.Slot, statuses), nil
	})
	c.Handle("getAccountInfo", func(params []json.RawMessage) (interface{}, *Error) {
		var address string
		if len(params) > 0 {
			json.Unmarshal(params[0], &address)
		}
		key, err := solana.PublicKeyFromBase58(address)
		if err != nil {
			return nil, &Error{Code: -32602, Message: err.Error()}
		}

		c.stateMutex.Lock()
		data, found := c.accounts[key]
		c.stateMutex.Unlock()

		if !found {
			return Context(c.Slot, nil), nil
		}
		return Context(c.Slot, map[string]interface{}{
			"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
			"executable": false,
			"lamports":   1_000_000,
			"owner":      solana.SystemProgramID.String(),
			"rentEpoch":  0,
		}), nil
	})

	return c
}

func (c *Cluster) SetAccount(address solana.PublicKey, data []byte) {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	c.accounts[address] = data
}

// Sent returns the transactions received so far.
func (c *Cluster) Sent() []*solana.Transaction {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	return append([]*solana.Transaction{}, c.sent...)
}
