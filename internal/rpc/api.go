package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/dvrpc-eth/dvrpc-node/internal/consensus"
	"github.com/dvrpc-eth/dvrpc-node/internal/proof"
	"github.com/dvrpc-eth/dvrpc-node/internal/upstream"
	"github.com/dvrpc-eth/dvrpc-node/log"
)

// API implements the verifying eth_ namespace described in spec §4.9: it
// reads the authenticated head, fetches a proof from the upstream node,
// verifies it against that head, and only then answers the caller.
type API struct {
	upstream  *upstream.Client
	consensus *consensus.Adapter
	chainID   uint64

	// verify controls whether proofs are checked against a consensus
	// head at all. Operational deployments without a light client
	// (spec §4.9 step 2, "if consensus is disabled") set this false and
	// trust the upstream node directly.
	verify bool
}

// NewAPI constructs an API serving chainID, fetching proofs from uc, and
// (when verify is true) checking them against cons.
func NewAPI(uc *upstream.Client, cons *consensus.Adapter, chainID uint64, verify bool) *API {
	return &API{upstream: uc, consensus: cons, chainID: chainID, verify: verify}
}

// HandleRequest dispatches req to the matching method handler. withProof
// mirrors the X-DVRPC-Proof request header: when true, a successful
// response carries the raw proof and the consensus tuple it was checked
// against.
func (api *API) HandleRequest(ctx context.Context, req *Request, withProof bool) *Response {
	switch req.Method {
	case "eth_getBalance":
		return api.getBalance(ctx, req, withProof)
	case "eth_getStorageAt":
		return api.getStorageAt(ctx, req, withProof)
	case "eth_getTransactionCount":
		return api.getTransactionCount(ctx, req, withProof)
	case "eth_getCode":
		return api.getCode(ctx, req)
	case "eth_getProof":
		return api.getProof(ctx, req, withProof)
	case "eth_blockNumber":
		return api.blockNumber(ctx, req)
	case "eth_chainId":
		return api.chainIDMethod(req)
	default:
		return errorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

func (api *API) getBalance(ctx context.Context, req *Request, withProof bool) *Response {
	if len(req.Params) < 2 {
		return errorResponse(req.ID, ErrCodeInvalidParams, "missing address or block selector")
	}
	addr, err := parseAddress(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	block, err := parseString(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	in, head, verr := api.verifiedProof(ctx, addr, nil, block)
	if verr != nil {
		return errorResponse(req.ID, ErrCodeInternal, verr.Error())
	}

	balance := proof.ExtractScalar(in, proof.ScalarBalance)
	resp := successResponse(req.ID, (*hexutil.Big)(balance.ToBig()))
	if withProof {
		attachProof(resp, in, head)
	}
	return resp
}

func (api *API) getTransactionCount(ctx context.Context, req *Request, withProof bool) *Response {
	if len(req.Params) < 2 {
		return errorResponse(req.ID, ErrCodeInvalidParams, "missing address or block selector")
	}
	addr, err := parseAddress(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	block, err := parseString(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	in, head, verr := api.verifiedProof(ctx, addr, nil, block)
	if verr != nil {
		return errorResponse(req.ID, ErrCodeInternal, verr.Error())
	}

	resp := successResponse(req.ID, hexutil.Uint64(in.Nonce))
	if withProof {
		attachProof(resp, in, head)
	}
	return resp
}

func (api *API) getStorageAt(ctx context.Context, req *Request, withProof bool) *Response {
	if len(req.Params) < 3 {
		return errorResponse(req.ID, ErrCodeInvalidParams, "missing address, slot, or block selector")
	}
	addr, err := parseAddress(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	slot, err := parseHash(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	block, err := parseString(req.Params[2])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	in, head, verr := api.verifiedProof(ctx, addr, []common.Hash{slot}, block)
	if verr != nil {
		return errorResponse(req.ID, ErrCodeInternal, verr.Error())
	}

	value := proof.ExtractScalar(in, proof.ScalarStorage)
	resp := successResponse(req.ID, common.BigToHash(value.ToBig()))
	if withProof {
		attachProof(resp, in, head)
	}
	return resp
}

// getCode is a thin pass-through: EIP-1186 account proofs attest to
// codeHash, not to the code bytes themselves, so there is nothing for C6
// to verify here.
func (api *API) getCode(ctx context.Context, req *Request) *Response {
	if len(req.Params) < 2 {
		return errorResponse(req.ID, ErrCodeInvalidParams, "missing address or block selector")
	}
	addr, err := parseAddress(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	block, err := parseString(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	var code hexutil.Bytes
	if err := api.upstream.Call(ctx, "eth_getCode", []interface{}{addr, block}, &code); err != nil {
		return errorResponse(req.ID, ErrCodeInternal, err.Error())
	}
	return successResponse(req.ID, code)
}

func (api *API) getProof(ctx context.Context, req *Request, withProof bool) *Response {
	if len(req.Params) < 3 {
		return errorResponse(req.ID, ErrCodeInvalidParams, "missing address, storage keys, or block selector")
	}
	addr, err := parseAddress(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	var rawKeys []string
	if err := json.Unmarshal(req.Params[1], &rawKeys); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	keys := make([]common.Hash, len(rawKeys))
	for i, k := range rawKeys {
		keys[i] = common.HexToHash(k)
	}
	block, err := parseString(req.Params[2])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	in, head, verr := api.verifiedProof(ctx, addr, keys, block)
	if verr != nil {
		return errorResponse(req.ID, ErrCodeInternal, verr.Error())
	}

	resp := successResponse(req.ID, toProofPayload(in))
	if withProof {
		attachConsensus(resp, head)
	}
	return resp
}

func (api *API) blockNumber(ctx context.Context, req *Request) *Response {
	if api.verify {
		head, ok := api.consensus.Current()
		if !ok {
			return errorResponse(req.ID, ErrCodeInternal, "consensus not synced")
		}
		return successResponse(req.ID, hexutil.Uint64(head.BlockNumber))
	}

	var n hexutil.Uint64
	if err := api.upstream.Call(ctx, "eth_blockNumber", nil, &n); err != nil {
		return errorResponse(req.ID, ErrCodeInternal, err.Error())
	}
	return successResponse(req.ID, n)
}

func (api *API) chainIDMethod(req *Request) *Response {
	return successResponse(req.ID, hexutil.Uint64(api.chainID))
}

// verifiedProof reads the consensus head once (per spec §5's ordering
// guarantee), rewrites a "latest" block selector to that head's block
// number so the upstream proves against the exact block the light
// client attested to, fetches the proof, and — unless verification is
// disabled — checks it against the head's state root before returning.
func (api *API) verifiedProof(ctx context.Context, addr common.Address, keys []common.Hash, block string) (proof.Input, proof.Head, error) {
	var head proof.Head
	if api.verify {
		h, ok := api.consensus.Current()
		if !ok {
			return proof.Input{}, proof.Head{}, fmt.Errorf("consensus not synced")
		}
		head = h
		if block == "latest" {
			block = hexutil.EncodeUint64(head.BlockNumber)
		}
	}

	in, err := api.upstream.GetProof(ctx, addr, keys, block)
	if err != nil {
		return proof.Input{}, proof.Head{}, err
	}

	if api.verify {
		ok, err := proof.VerifyComplete(head.StateRoot, in)
		if err != nil {
			log.Error("proof verification error", "address", addr, "block", block, "error", err)
			return proof.Input{}, proof.Head{}, fmt.Errorf("Proof verification failed")
		}
		if !ok {
			log.Warn("proof mismatch", "address", addr, "block", block)
			return proof.Input{}, proof.Head{}, fmt.Errorf("Proof verification failed")
		}
	}

	return in, head, nil
}

func attachProof(resp *Response, in proof.Input, head proof.Head) {
	resp.Proof = toProofPayload(in)
	attachConsensus(resp, head)
}

func attachConsensus(resp *Response, head proof.Head) {
	resp.Consensus = &ConsensusPayload{
		StateRoot:   head.StateRoot,
		Slot:        hexutil.Uint64(head.Slot),
		BlockNumber: hexutil.Uint64(head.BlockNumber),
	}
}

func toProofPayload(in proof.Input) *ProofPayload {
	accountProof := make([]hexutil.Bytes, len(in.AccountProof))
	for i, n := range in.AccountProof {
		accountProof[i] = n
	}
	storageProof := make([]StorageProofEntry, len(in.StorageProofs))
	for i, sp := range in.StorageProofs {
		nodes := make([]hexutil.Bytes, len(sp.Proof))
		for j, n := range sp.Proof {
			nodes[j] = n
		}
		value := sp.Value
		if value == nil {
			value = new(uint256.Int)
		}
		storageProof[i] = StorageProofEntry{
			Key:   sp.Key,
			Value: (*hexutil.Big)(value.ToBig()),
			Proof: nodes,
		}
	}
	balance := in.Balance
	if balance == nil {
		balance = new(uint256.Int)
	}
	return &ProofPayload{
		Address:      in.Address,
		Balance:      (*hexutil.Big)(balance.ToBig()),
		Nonce:        hexutil.Uint64(in.Nonce),
		CodeHash:     in.CodeHash,
		StorageHash:  in.StorageHash,
		AccountProof: accountProof,
		StorageProof: storageProof,
	}
}

func parseString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

func parseAddress(raw json.RawMessage) (common.Address, error) {
	s, err := parseString(raw)
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(s), nil
}

func parseHash(raw json.RawMessage) (common.Hash, error) {
	s, err := parseString(raw)
	if err != nil {
		return common.Hash{}, err
	}
	return common.HexToHash(s), nil
}
