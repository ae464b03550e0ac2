package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	. "fenrir/internal/common"
	"fenrir/internal/engine"
	"fenrir/internal/metrics"
	"fenrir/internal/utils"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	MAX_RECV_SIZE      = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = 30 * time.Second
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// ClientSession contains relevant information pertaining to an individual
// connected TCP session.
type ClientSession struct {
	conn net.Conn
}

// ClientMessage links a message to the client connection that sent it.
type ClientMessage struct {
	clientAddress string
	message       Message
}

// Engine is the dispatch surface the server drains onto. Satisfied by
// *engine.Engine; narrowed to an interface so the server can be tested
// against a fake.
type Engine interface {
	PlaceOrder(assetType AssetType, req engine.SubmitRequest) (engine.SubmitResult, error)
	CancelOrder(assetType AssetType, side Side, orderID uint64) error
	ModifyOrder(assetType AssetType, side Side, orderID uint64, req engine.ModifyRequest) error
	Summary(assetType AssetType) (engine.Summary, bool)
}

// Server accepts TCP connections, decodes wire messages via a pool of
// workers, and serializes every decoded command onto the engine through a
// single sessionHandler goroutine: one owning thread draining an inbound
// queue, so book mutations never interleave.
type Server struct {
	address string
	port    int
	engine  Engine
	pool    utils.WorkerPool
	cancel  context.CancelFunc
	rec     *metrics.Recorder

	clientSessions     map[string]ClientSession // keyed by conn.RemoteAddr().String()
	ownerSessions      map[string]ClientSession // keyed by the Owner tag seen on a NewOrder
	clientSessionsLock sync.Mutex

	clientMessages chan ClientMessage
}

func New(address string, port int, eng Engine) *Server {
	return &Server{
		address:        address,
		port:           port,
		engine:         eng,
		pool:           utils.NewWorkerPool(defaultNWorkers),
		clientSessions: make(map[string]ClientSession),
		ownerSessions:  make(map[string]ClientSession),
		clientMessages: make(chan ClientMessage, 64),
	}
}

// SetEngine wires (or rewires) the dispatch target. Exists because the
// engine's TradeSink is the server itself: the two must be constructed in
// two phases, server first, then the engine around it, then the engine
// wired back in here.
func (s *Server) SetEngine(eng Engine) {
	s.engine = eng
}

// SetRecorder wires a metrics.Recorder so per-command counters are
// observed as commands are dispatched. Optional: a nil recorder (the
// zero value) means command metrics are simply skipped.
func (s *Server) SetRecorder(rec *metrics.Recorder) {
	s.rec = rec
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})

	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("address", s.address).Int("port", s.port).Msg("server running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}

			log.Info().
				Str("address", conn.RemoteAddr().String()).
				Msg("new client added")
			s.addClientSession(conn)
			s.pool.AddTask(conn)
		}
	}
}

// RecordTrade implements engine.TradeSink, fanning one executed trade out
// as a wire report to each counterparty with a live session.
func (s *Server) RecordTrade(trade TradeRecord) {
	makerReport, takerReport := tradeReportsFor(trade.AssetType, trade)
	s.sendToOwner(trade.Party1.Owner, &makerReport)
	s.sendToOwner(trade.Party2.Owner, &takerReport)
}

func (s *Server) sendToOwner(owner string, report *Report) {
	s.clientSessionsLock.Lock()
	session, ok := s.ownerSessions[owner]
	s.clientSessionsLock.Unlock()
	if !ok {
		log.Warn().Str("owner", owner).Msg("no live session for trade report")
		return
	}

	if _, err := session.conn.Write(report.Serialize()); err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("unable to send report")
		s.deleteClientSession(session.conn.RemoteAddr().String())
	}
}

func (s *Server) ReportError(clientAddress string, err error) {
	s.clientSessionsLock.Lock()
	client, ok := s.clientSessions[clientAddress]
	s.clientSessionsLock.Unlock()
	if !ok {
		return
	}

	report := errorReport(err)
	if _, werr := client.conn.Write(report.Serialize()); werr != nil {
		log.Error().Err(werr).Str("clientAddress", clientAddress).Msg("unable to send error report")
		s.deleteClientSession(clientAddress)
	}
}

// sessionHandler reads off incoming messages from clients and handles
// high-level session logic. Messages are received from the pool of
// workers. This is the single place book-mutating commands are applied,
// so it alone owns the engine's linearization point.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case message := <-s.clientMessages:
			if err := s.handleMessage(message); err != nil {
				log.Error().
					Err(err).
					Str("clientAddress", message.clientAddress).
					Msg("error handling message")
				s.ReportError(message.clientAddress, err)
			}
		}
	}
}

func (s *Server) handleMessage(message ClientMessage) error {
	switch message.message.GetType() {
	case NewOrder:
		order, ok := message.message.(NewOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		s.registerOwner(order.Owner, message.clientAddress)

		req, err := order.SubmitRequest()
		if err != nil {
			return err
		}
		_, err = s.engine.PlaceOrder(order.AssetType, req)
		if err != nil {
			log.Error().Err(err).Str("clientAddress", message.clientAddress).Msg("error while placing order")
			s.recordError(err)
			return err
		}
		s.recordPlaced()

	case CancelOrder:
		order, ok := message.message.(CancelOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		if err := s.engine.CancelOrder(order.AssetType, order.Side, order.OrderID); err != nil {
			log.Error().
				Err(err).
				Str("clientAddress", message.clientAddress).
				Uint64("orderID", order.OrderID).
				Msg("error while cancelling order")
			s.recordError(err)
			return err
		}
		s.recordCanceled()

	case ModifyOrder:
		order, ok := message.message.(ModifyOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		req, err := order.ModifyRequest()
		if err != nil {
			return err
		}
		if err := s.engine.ModifyOrder(order.AssetType, order.Side, order.OrderID, req); err != nil {
			log.Error().
				Err(err).
				Str("clientAddress", message.clientAddress).
				Uint64("orderID", order.OrderID).
				Msg("error while modifying order")
			s.recordError(err)
			return err
		}
		s.recordModified()

	case QuerySummary:
		query, ok := message.message.(QuerySummaryMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		summary, found := s.engine.Summary(query.AssetType)
		if !found {
			return ErrOrderNotFound
		}
		// TODO: wire a dedicated SummaryReport message; for now summaries
		// are observable through logs only.
		log.Info().
			Str("clientAddress", message.clientAddress).
			Interface("summary", summary).
			Msg("summary requested")

	case LogBook:
		log.Info().Str("clientAddress", message.clientAddress).Msg("log book requested")

	default:
		log.Error().
			Int("messageType", int(message.message.GetType())).
			Msg("invalid message type")
		return ErrInvalidMessageType
	}
	return nil
}

// handleConnection is a short-lived worker method which reads the next
// message off the connection, parses and passes it forward to
// sessionHandler, then re-queues the connection for its next message. If
// the connection dies, the client session is cleaned up.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Str("address", conn.RemoteAddr().String()).Err(err).Msg("failed setting deadline")
		s.closeConnection(conn)
		return nil
	}

	select {
	case <-t.Dying():
		return nil
	default:
	}

	buffer := make([]byte, MAX_RECV_SIZE)
	n, err := conn.Read(buffer)
	if err != nil {
		log.Error().
			Err(err).
			Str("address", conn.RemoteAddr().String()).
			Msg("error reading from connection")
		s.closeConnection(conn)
		return nil
	}

	message, err := parseMessage(buffer[:n])
	if err != nil {
		log.Error().
			Err(err).
			Str("address", conn.RemoteAddr().String()).
			Msg("error parsing message")
		s.closeConnection(conn)
		return nil
	}

	s.clientMessages <- ClientMessage{
		message:       message,
		clientAddress: conn.RemoteAddr().String(),
	}

	// Push the connection back to handle its next message.
	s.pool.AddTask(conn)
	return nil
}

func (s *Server) closeConnection(conn net.Conn) {
	s.deleteClientSession(conn.RemoteAddr().String())
	if err := conn.Close(); err != nil {
		log.Error().Str("address", conn.RemoteAddr().String()).Err(err).Msg("error closing connection")
	}
}

func (s *Server) addClientSession(conn net.Conn) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	s.clientSessions[conn.RemoteAddr().String()] = ClientSession{conn: conn}
}

// registerOwner links an opaque Owner tag to the connection it most
// recently submitted an order from, so trade reports can be routed back to
// the right client without the client announcing a separate login.
func (s *Server) registerOwner(owner, clientAddress string) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	session, ok := s.clientSessions[clientAddress]
	if !ok {
		return
	}
	s.ownerSessions[owner] = session
}

func (s *Server) recordPlaced() {
	if s.rec != nil {
		s.rec.OrdersPlaced.Inc()
	}
}

func (s *Server) recordCanceled() {
	if s.rec != nil {
		s.rec.OrdersCanceled.Inc()
	}
}

func (s *Server) recordModified() {
	if s.rec != nil {
		s.rec.OrdersModified.Inc()
	}
}

func (s *Server) recordError(err error) {
	if s.rec != nil {
		s.rec.CommandError(err)
	}
}

func (s *Server) deleteClientSession(address string) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	delete(s.clientSessions, address)
}
