package exec

import (
	"context"
	"time"

	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/evbatch"
	log "github.com/spirit-labs/tekagg/logger"
)

const sourcePollInterval = 10 * time.Millisecond

// Pipeline drives a linear chain of nodes from a source on the calling goroutine.
type Pipeline struct {
	state  *ExecState
	source SourceNode
	nodes  []Node
}

// NewPipeline links source -> nodes[0] -> nodes[1] ...
func NewPipeline(state *ExecState, source SourceNode, nodes ...Node) *Pipeline {
	var parent Node = source
	for _, node := range nodes {
		parent.AddChild(node)
		parent = node
	}
	return &Pipeline{state: state, source: source, nodes: nodes}
}

// Run initialises, prepares and opens every node in order, then generates batches until the source has sent
// end of stream or ctx is done. Every node is closed before Run returns and the first error is returned.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	all := append([]Node{p.source}, p.nodes...)
	defer func() {
		for _, node := range all {
			if cerr := node.Close(p.state); cerr != nil && err == nil {
				err = cerr
			}
		}
	}()
	var inputs []*evbatch.EventSchema
	for _, node := range all {
		if err := node.Init(nil, inputs); err != nil {
			return err
		}
		if err := node.Prepare(p.state); err != nil {
			return err
		}
		if err := node.Open(p.state); err != nil {
			return err
		}
		inputs = []*evbatch.EventSchema{node.OutputDescriptor()}
	}
	log.Debugf("query %s running pipeline of %d nodes", p.state.QueryID, len(all))
	for p.source.HasBatchesRemaining() {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		if !p.source.NextBatchReady() {
			select {
			case <-ctx.Done():
				return errors.WithStack(ctx.Err())
			case <-time.After(sourcePollInterval):
			}
			continue
		}
		if err := p.source.GenerateNext(p.state); err != nil {
			return err
		}
	}
	return nil
}
