package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	enclave "github.com/edgebitio/nitro-enclaves-sdk-go"
	"github.com/mdlayher/vsock"
	"go.uber.org/zap"

	"github.com/cloudx-io/doubleauction/auctionapi"
	"github.com/cloudx-io/doubleauction/logging"
)

// getEnclaveAttester attempts to get the NSM attester, returns error if not available
func getEnclaveAttester() (EnclaveAttester, error) {
	handle, err := enclave.GetOrInitializeHandle()
	if err != nil {
		return nil, fmt.Errorf("NSM not available: %w", err)
	}
	return handle, nil
}

// EnclaveServer accepts one JSON request per connection and writes one JSON
// response back. Clients half-close their side after writing the request.
type EnclaveServer struct {
	cfg  Config
	node *Node
	log  *logging.Logger
}

func NewEnclaveServer(cfg Config, node *Node, log *logging.Logger) *EnclaveServer {
	if log == nil {
		log = logging.NewNop()
	}
	return &EnclaveServer{cfg: cfg, node: node, log: log.Named("server")}
}

func (s *EnclaveServer) listen() (net.Listener, error) {
	switch s.cfg.Listen.Transport {
	case TransportVsock:
		l, err := vsock.Listen(s.cfg.Listen.Port, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create vsock listener: %w", err)
		}
		return l, nil
	default:
		addr := s.cfg.Listen.Address
		if addr == "" {
			addr = net.JoinHostPort("", strconv.FormatUint(uint64(s.cfg.Listen.Port), 10))
		}
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to create tcp listener: %w", err)
		}
		return l, nil
	}
}

// Start listens on the configured transport and serves until ctx is done.
func (s *EnclaveServer) Start(ctx context.Context) error {
	l, err := s.listen()
	if err != nil {
		return err
	}
	s.log.Info("server listening",
		zap.String("transport", s.cfg.Listen.Transport),
		zap.String("addr", l.Addr().String()))
	return s.Serve(ctx, l)
}

// Serve runs the accept loop on l. At most cfg.MaxWorkers connections are
// handled at once; connections beyond that are closed without a response.
func (s *EnclaveServer) Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	semaphore := make(chan struct{}, s.cfg.MaxWorkers)
	s.log.Info("worker pool initialized", zap.Int("max_workers", s.cfg.MaxWorkers))

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.Error("failed to accept connection", zap.Error(err))
			continue
		}

		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }()
				s.handleConnection(ctx, c)
			}(conn)
		default:
			s.log.Warn("no workers available, rejecting connection")
			if err := conn.Close(); err != nil {
				s.log.Error("failed to close rejected connection", zap.Error(err))
			}
		}
	}
}

func (s *EnclaveServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic recovered in handleConnection", zap.Any("panic", r))
		}
		if err := conn.Close(); err != nil {
			s.log.Debug("failed to close connection", zap.Error(err))
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, conn); err != nil {
		s.log.Error("failed to read request", zap.Error(err))
		return
	}

	response := s.dispatch(ctx, buf.Bytes())
	if err := json.NewEncoder(conn).Encode(response); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

// dispatch routes a raw request to the node and always produces a response.
func (s *EnclaveServer) dispatch(ctx context.Context, raw []byte) any {
	var env auctionapi.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return errorResponse(fmt.Errorf("failed to decode request: %w", err))
	}
	s.log.Debug("received request", zap.String("type", env.Type))

	var (
		resp any
		err  error
	)
	switch env.Type {
	case auctionapi.TypePing:
		return map[string]any{
			"type":      auctionapi.TypePong,
			"message":   "auction node is healthy",
			"timestamp": time.Now().Unix(),
		}

	case auctionapi.TypeKeyRequest:
		resp, err = s.node.KeyRequest()

	case auctionapi.TypeUpdatePrices:
		var req auctionapi.UpdatePricesRequest
		if err = json.Unmarshal(raw, &req); err == nil {
			resp, err = s.node.UpdatePrices(req)
		}

	case auctionapi.TypeSubmitOrder:
		var req auctionapi.SubmitOrderRequest
		if err = json.Unmarshal(raw, &req); err == nil {
			resp, err = s.node.SubmitOrder(req)
		}

	case auctionapi.TypeSubmitSealedOrder:
		var req auctionapi.SubmitSealedOrderRequest
		if err = json.Unmarshal(raw, &req); err == nil {
			resp, err = s.node.SubmitSealedOrder(req)
		}

	case auctionapi.TypeClear:
		var req auctionapi.ClearRequest
		if err = json.Unmarshal(raw, &req); err == nil {
			resp, err = s.node.Clear(ctx, req)
		}

	case auctionapi.TypeReset:
		var req auctionapi.ResetRequest
		if err = json.Unmarshal(raw, &req); err == nil {
			resp, err = s.node.Reset(req)
		}

	case auctionapi.TypeState:
		resp = s.node.State()

	default:
		err = fmt.Errorf("unknown request type: %s", env.Type)
	}

	if err != nil {
		s.log.Warn("request failed", zap.String("type", env.Type), zap.Error(err))
		return errorResponse(err)
	}
	return resp
}

func errorResponse(err error) auctionapi.ErrorResponse {
	return auctionapi.ErrorResponse{Type: auctionapi.TypeError, Message: err.Error()}
}
