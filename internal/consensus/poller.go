package consensus

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/dvrpc-eth/dvrpc-node/internal/proof"
	"github.com/dvrpc-eth/dvrpc-node/internal/upstream"
)

// headSource is the minimal upstream surface Poller needs; satisfied by
// *upstream.Client and by fakes in tests.
type headSource interface {
	Call(ctx context.Context, method string, params []interface{}, out interface{}) error
}

type headerBlock struct {
	Number hexutil.Uint64 `json:"number"`
	Root   common.Hash    `json:"stateRoot"`
}

// Poller stands in for the light-client sync-committee verifier this
// gateway's C7 boundary is specified against (spec.md §1: only its output
// is consumed, never the attestation machinery itself). It tracks the
// upstream execution node's canonical head directly, publishing
// (state_root, block_number) through Adapter; Slot is set equal to
// BlockNumber since no real beacon-chain slot clock is wired in.
type Poller struct {
	adapter  *Adapter
	client   headSource
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller returns a Poller that updates adapter from client every
// interval once started.
func NewPoller(adapter *Adapter, client *upstream.Client, interval time.Duration) *Poller {
	return &Poller{adapter: adapter, client: client, interval: interval}
}

// Name implements node.Service.
func (p *Poller) Name() string { return "consensus-poller" }

// Start implements node.Service: it polls once synchronously so the first
// Current() call after Start succeeds, then continues in the background.
func (p *Poller) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	p.cancel = cancel
	p.done = make(chan struct{})
	p.mu.Unlock()

	if err := p.pollOnce(ctx); err != nil {
		return err
	}

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.pollOnce(ctx)
			}
		}
	}()
	return nil
}

// Stop implements node.Service.
func (p *Poller) Stop() error {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (p *Poller) pollOnce(ctx context.Context) error {
	var num hexutil.Uint64
	if err := p.client.Call(ctx, "eth_blockNumber", nil, &num); err != nil {
		return err
	}

	var block headerBlock
	params := []interface{}{hexutil.EncodeUint64(uint64(num)), false}
	if err := p.client.Call(ctx, "eth_getBlockByNumber", params, &block); err != nil {
		return err
	}

	p.adapter.Update(proof.Head{
		StateRoot:   block.Root,
		BlockNumber: uint64(num),
		Slot:        uint64(num),
	})
	return nil
}
