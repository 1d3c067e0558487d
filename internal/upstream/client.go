// Package upstream issues eth_getProof against an untrusted execution
// node and parses its EIP-1186 response into the proof package's Input
// shape. It never trusts what it receives: everything it returns is
// fed straight to the proof orchestrator for verification.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/dvrpc-eth/dvrpc-node/internal/proof"
)

// Client talks JSON-RPC 2.0 to a single upstream execution node over
// HTTP. The zero value is not usable; construct with New.
type Client struct {
	httpClient *http.Client
	url        string
}

// New returns a Client targeting url, with requests bounded by timeout.
// A non-positive timeout disables the deadline.
func New(url string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
	}
}

// GetProof calls eth_getProof for address and storageKeys at block
// (either a hex block number or a tag like "latest"), and parses the
// EIP-1186 response into a proof.Input. Callers decide whether to trust
// what comes back — GetProof itself does no verification.
func (c *Client) GetProof(ctx context.Context, address common.Address, storageKeys []common.Hash, block string) (proof.Input, error) {
	keys := make([]interface{}, len(storageKeys))
	for i, k := range storageKeys {
		keys[i] = k
	}

	req := jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  "eth_getProof",
		Params:  []interface{}{address, keys, block},
		ID:      1,
	}

	var resp eip1186Response
	if err := c.call(ctx, req, &resp); err != nil {
		return proof.Input{}, err
	}

	in := proof.Input{
		Address:      resp.Address,
		Balance:      new(uint256.Int),
		Nonce:        uint64(resp.Nonce),
		CodeHash:     resp.CodeHash,
		StorageHash:  resp.StorageHash,
		AccountProof: make([][]byte, len(resp.AccountProof)),
	}
	if resp.Balance != nil {
		in.Balance, _ = uint256.FromBig((*resp.Balance).ToInt())
	}
	for i, n := range resp.AccountProof {
		in.AccountProof[i] = n
	}

	in.StorageProofs = make([]proof.StorageInput, len(resp.StorageProof))
	for i, sp := range resp.StorageProof {
		value := new(uint256.Int)
		if sp.Value != nil {
			value, _ = uint256.FromBig((*sp.Value).ToInt())
		}
		nodes := make([][]byte, len(sp.Proof))
		for j, n := range sp.Proof {
			nodes[j] = n
		}
		in.StorageProofs[i] = proof.StorageInput{
			Key:   sp.Key,
			Value: value,
			Proof: nodes,
		}
	}

	return in, nil
}

// Call issues an arbitrary JSON-RPC method against the upstream node and
// decodes its result into out. Used for methods C9 passes through without
// verification (eth_getCode, and eth_blockNumber when verification is
// off) and by the consensus poller.
func (c *Client) Call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	req := jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}
	return c.call(ctx, req, out)
}

// call marshals req, POSTs it to the upstream URL, and unmarshals the
// result into out. It distinguishes transport failures from
// upstream-reported RPC errors.
func (c *Client) call(ctx context.Context, req jsonRPCRequest, out interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("upstream: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("upstream: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("upstream: transport: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream: unexpected status %d", httpResp.StatusCode)
	}

	var rpcResp jsonRPCResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("upstream: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("upstream: rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if len(rpcResp.Result) == 0 {
		return fmt.Errorf("upstream: empty result")
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("upstream: decode result: %w", err)
	}
	return nil
}
