// Package rpc is the client-facing JSON-RPC 2.0 front-end. It dispatches
// by method name, orchestrates a head read, an upstream proof fetch, and
// a C6 verification for every provable method, and optionally attaches
// the raw proof and the consensus tuple it was checked against.
package rpc

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      json.RawMessage   `json:"id"`
}

// Response is a JSON-RPC 2.0 response envelope. Proof and Consensus are
// the gateway's own extension fields, populated only when the caller set
// the X-DVRPC-Proof header and the request succeeded. For eth_getProof
// the proof is the result itself, so only Consensus is attached.
type Response struct {
	JSONRPC   string            `json:"jsonrpc"`
	Result    interface{}       `json:"result,omitempty"`
	Error     *RPCError         `json:"error,omitempty"`
	ID        json.RawMessage   `json:"id"`
	Proof     *ProofPayload     `json:"proof,omitempty"`
	Consensus *ConsensusPayload `json:"consensus,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Standard JSON-RPC 2.0 error codes, plus the gateway's verification
// failure which is reported as an internal error per spec.
const (
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

// ProofPayload is the verified account/storage proof attached to a
// response when the caller requested it.
type ProofPayload struct {
	Address      common.Address      `json:"address"`
	Balance      *hexutil.Big        `json:"balance"`
	Nonce        hexutil.Uint64      `json:"nonce"`
	CodeHash     common.Hash         `json:"codeHash"`
	StorageHash  common.Hash         `json:"storageHash"`
	AccountProof []hexutil.Bytes     `json:"accountProof"`
	StorageProof []StorageProofEntry `json:"storageProof"`
}

// StorageProofEntry is one verified storage slot within a ProofPayload.
type StorageProofEntry struct {
	Key   common.Hash     `json:"key"`
	Value *hexutil.Big    `json:"value"`
	Proof []hexutil.Bytes `json:"proof"`
}

// ConsensusPayload is the authenticated head a response was checked
// against.
type ConsensusPayload struct {
	StateRoot   common.Hash    `json:"stateRoot"`
	Slot        hexutil.Uint64 `json:"slot"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
}

func successResponse(id json.RawMessage, result interface{}) *Response {
	return &Response{JSONRPC: "2.0", Result: result, ID: id}
}

func errorResponse(id json.RawMessage, code int, message string) *Response {
	return &Response{JSONRPC: "2.0", Error: &RPCError{Code: code, Message: message}, ID: id}
}
