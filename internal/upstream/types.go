package upstream

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *jsonRPCError) Error() string {
	return e.Message
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *jsonRPCError   `json:"error,omitempty"`
}

// eip1186Response is the camelCase wire shape of an eth_getProof result.
type eip1186Response struct {
	Address      common.Address           `json:"address"`
	Balance      *hexutil.Big             `json:"balance"`
	CodeHash     common.Hash              `json:"codeHash"`
	Nonce        hexutil.Uint64           `json:"nonce"`
	StorageHash  common.Hash              `json:"storageHash"`
	AccountProof []hexutil.Bytes          `json:"accountProof"`
	StorageProof []eip1186StorageResponse `json:"storageProof"`
}

type eip1186StorageResponse struct {
	Key   common.Hash     `json:"key"`
	Value *hexutil.Big    `json:"value"`
	Proof []hexutil.Bytes `json:"proof"`
}
