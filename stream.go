package tricore

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// SendState is the outbound half of a stream's lifecycle (§4.9).
type SendState int

const (
	SendOpen SendState = iota
	SendHalfClosed
	SendCanceled
)

// RecvState is the inbound half of a stream's lifecycle (§4.9).
type RecvState int

const (
	RecvPending RecvState = iota
	RecvHeaders
	RecvMessaging
	RecvTerminal
)

// StreamHandler is the push-based consumption style: invoked once per
// StreamResult, in arrival order, exactly once terminating in a Complete
// event (§4.9, §5).
type StreamHandler func(StreamResult)

// BidirectionalStream is the duplex handle returned by ProtocolClient.Stream.
// It owns exactly the mutable state §5 allows to be shared across
// goroutines: send/recv state flags and the captured response-headers slot,
// all behind a single mutex. Grounded on client/multiplexer.go's
// RpcMultiplexer (one read-loop goroutine multiplexing transport events onto
// per-call state) and pkg/server/stream.go's serverStream (flag/mutex
// shape), reconstructed against internal/client/stream_test.go's observable
// contract since the teacher's own client-side stream implementation file
// was not present in the retrieved pack.
type BidirectionalStream struct {
	ctx    context.Context
	cancel CancelFunc
	chain  *StreamChain
	sink   StreamSink
	log    zerolog.Logger
	clk    clock.Clock

	mu              sync.Mutex
	sendState       SendState
	recvState       RecvState
	responseHeaders Metadata
	handler         StreamHandler
	terminated      bool

	// resultsMu serializes every send to, and the single close of,
	// results. It is distinct from mu so that delivering to a caller's
	// handler (which may itself call back into Send/Cancel and so must
	// not be made while holding mu) never blocks a concurrent goroutine
	// that only needs to push or close the channel.
	resultsMu     sync.Mutex
	resultsClosed bool
	results       chan StreamResult
}

func newBidirectionalStream(
	ctx context.Context,
	chain *StreamChain,
	sink StreamSink,
	source StreamSource,
	cancel CancelFunc,
	clk clock.Clock,
	logger zerolog.Logger,
) *BidirectionalStream {
	if clk == nil {
		clk = clock.New()
	}

	s := &BidirectionalStream{
		ctx:     ctx,
		cancel:  cancel,
		chain:   chain,
		sink:    sink,
		clk:     clk,
		log:     logger,
		results: make(chan StreamResult, 8),
	}

	go s.readLoop(source)

	return s
}

// OnResult registers a push-based callback for stream events, in addition
// to the pull-based Results channel. Must be called before the first event
// would otherwise be delivered (immediately after Stream returns) to avoid
// missing events, per §5's "single-shot, non-restartable" event stream.
func (s *BidirectionalStream) OnResult(h StreamHandler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// Results exposes the pull-based consumption style: a channel yielding
// Headers (at most once), zero or more Message, then exactly one terminal
// Complete, after which the channel is closed (§4.9).
func (s *BidirectionalStream) Results() <-chan StreamResult {
	return s.results
}

// readLoop is the single goroutine draining the transport's StreamSource,
// running each event through the chain's incoming direction, updating
// recv_state, and fanning out to both consumption styles.
func (s *BidirectionalStream) readLoop(source StreamSource) {
	for {
		res, err := source.Next(s.ctx)
		if err != nil {
			s.deliverTerminal(CompleteResult(CodeUnknown, WrapError(CodeUnknown, err), nil))
			return
		}

		res, err = s.chain.OnOutput(s.ctx, res)
		if err != nil {
			s.deliverTerminal(CompleteResult(CodeUnknown, WrapError(CodeUnknown, err), nil))
			return
		}

		switch res.Kind {
		case StreamEventDiscard:
			continue

		case StreamEventHeaders:
			s.mu.Lock()
			s.responseHeaders = res.Headers
			s.recvState = RecvHeaders
			s.mu.Unlock()
			s.deliver(res)

		case StreamEventMessage:
			s.mu.Lock()
			s.recvState = RecvMessaging
			s.mu.Unlock()
			s.deliver(res)

		case StreamEventComplete:
			s.deliverTerminal(res)
			return

		default:
			s.log.Warn().Int("kind", int(res.Kind)).Msg("stream: unexpected event kind from chain")
		}
	}
}

// deliver fans a non-terminal event out to whichever consumption styles are
// active.
func (s *BidirectionalStream) deliver(res StreamResult) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()

	if h != nil {
		h(res)
	}
	s.pushResult(res, true)
}

// deliverTerminal emits the single terminal Complete event and closes the
// results channel, per §4.9 ("the terminal event is emitted exactly once").
func (s *BidirectionalStream) deliverTerminal(res StreamResult) {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return
	}
	s.terminated = true
	s.recvState = RecvTerminal
	h := s.handler
	s.mu.Unlock()

	if h != nil {
		h(res)
	}
	s.pushResult(res, false)
	s.closeResults()
}

// pushResult writes res to results, guarded against racing a concurrent
// closeResults call. blocking mirrors the channel's own backpressure
// contract (§9: "must not buffer unboundedly") for in-order recv events;
// terminal and advisory events are best-effort so a full, undrained buffer
// never wedges the goroutine delivering them.
func (s *BidirectionalStream) pushResult(res StreamResult, blocking bool) {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()
	if s.resultsClosed {
		return
	}
	if blocking {
		select {
		case s.results <- res:
		case <-s.ctx.Done():
		}
		return
	}
	select {
	case s.results <- res:
	default:
	}
}

// closeResults closes results exactly once. Holding resultsMu across the
// close (rather than only across a preceding flag check) is what makes it
// safe to run concurrently with pushResult: a send that already observed
// resultsClosed == false is guaranteed to complete before the channel closes,
// since both hold resultsMu for their entire critical section.
func (s *BidirectionalStream) closeResults() {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()
	if s.resultsClosed {
		return
	}
	s.resultsClosed = true
	close(s.results)
}

// Send encodes and writes msg to the outbound stream, per §4.9's fluent
// contract: errors are delivered out-of-band via the result channel/handler
// rather than returned, so callers may chain sends.
func (s *BidirectionalStream) Send(msg []byte) *BidirectionalStream {
	s.mu.Lock()
	state := s.sendState
	s.mu.Unlock()

	switch state {
	case SendHalfClosed:
		s.deliverSendError(NewError(CodeFailedPrecondition, "tricore: send after close_send"))
		return s
	case SendCanceled:
		s.deliverSendError(NewError(CodeCanceled, "tricore: send after cancel"))
		return s
	}

	frame, err := s.chain.OnInput(s.ctx, msg)
	if err != nil {
		s.deliverSendError(WrapError(CodeUnknown, err))
		return s
	}

	if err := s.sink.Send(s.ctx, frame); err != nil {
		s.deliverSendError(WrapError(CodeUnknown, err))
		return s
	}

	return s
}

// deliverSendError reports a Send-time failure as a non-terminal
// StreamEventSendError, per §4.9 ("send after close_send or cancel is a
// no-op that returns a Closed/Canceled error through the result channel,
// does not panic"). Dropped once the stream has already produced its
// terminal Complete: results may already be closed by then (pushResult
// would silently no-op regardless), and no event may follow the terminal
// one per §3/§5's "exactly one Complete; no events follow it".
func (s *BidirectionalStream) deliverSendError(err *Error) {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return
	}
	h := s.handler
	s.mu.Unlock()

	res := SendErrorResult(err)
	if h != nil {
		h(res)
	}
	s.pushResult(res, false)
}

// CloseSend transitions send_state Open→HalfClosed and closes the transport
// sink, signalling no further messages will be sent (§4.9).
func (s *BidirectionalStream) CloseSend() error {
	s.mu.Lock()
	if s.sendState != SendOpen {
		s.mu.Unlock()
		return nil
	}
	s.sendState = SendHalfClosed
	s.mu.Unlock()

	return s.sink.Close()
}

// Cancel aborts the transport request and, unless the stream has already
// terminated, synthesizes a terminal Complete{Canceled} event (§4.9, §5).
// Idempotent and safe for concurrent use.
func (s *BidirectionalStream) Cancel() {
	s.mu.Lock()
	alreadyCanceled := s.sendState == SendCanceled
	s.sendState = SendCanceled
	terminated := s.terminated
	s.mu.Unlock()

	if alreadyCanceled {
		return
	}

	if s.cancel != nil {
		s.cancel()
	}

	if !terminated {
		s.deliverTerminal(CompleteResult(CodeCanceled, NewError(CodeCanceled, "canceled"), nil))
	}
}
