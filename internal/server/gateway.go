// Package server runs the session gateway: it accepts the two player
// connections, feeds their actions to the match from a single goroutine and
// broadcasts the resulting state.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lineclash/lineclash-server/internal/feed"
	"github.com/lineclash/lineclash-server/internal/game"
	"github.com/lineclash/lineclash-server/internal/game/board"
	"github.com/lineclash/lineclash-server/internal/protocol"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// GatewayConfig tunes the gateway.
type GatewayConfig struct {
	Address       string
	MaxFrameBytes int
	// ResolveDelay is the pause between the second pass and round
	// resolution. Zero resolves immediately.
	ResolveDelay time.Duration
	// Linger is how long Serve keeps running once the match is over.
	Linger    time.Duration
	SendQueue int
}

// StatusReporter is told whether the gateway is serving a live match.
type StatusReporter interface {
	SetServing(serving bool)
}

// GatewayOption customises a Gateway.
type GatewayOption func(*Gateway)

// WithPublishers adds snapshot consumers (spectator hub, redis feed).
func WithPublishers(p ...feed.Publisher) GatewayOption {
	return func(g *Gateway) { g.publishers = append(g.publishers, p...) }
}

// WithReplays records every state into r and saves it when the match ends.
func WithReplays(r *game.ReplayRecorder) GatewayOption {
	return func(g *Gateway) { g.replays = r }
}

// WithStatus reports serving status changes to s.
func WithStatus(s StatusReporter) GatewayOption {
	return func(g *Gateway) { g.status = s }
}

type event interface{}

type joinEvent struct {
	nc net.Conn
}

type actionEvent struct {
	c      *conn
	action protocol.Action
}

type leaveEvent struct {
	c *conn
}

type resolveEvent struct{}

// conn is one player connection. send is only written and closed by the
// actor goroutine.
type conn struct {
	id   uuid.UUID
	seat board.Seat
	nc   net.Conn
	send chan []byte
}

// Gateway is the session gateway for a single match.
type Gateway struct {
	cfg        GatewayConfig
	match      *game.Match
	logger     *zap.Logger
	publishers []feed.Publisher
	replays    *game.ReplayRecorder
	status     StatusReporter

	mailbox chan event
	stopped chan struct{}
	wg      sync.WaitGroup

	// Owned by the actor goroutine.
	conns        [2]*conn
	resolveTimer *time.Timer
}

// NewGateway creates a gateway serving match.
func NewGateway(cfg GatewayConfig, match *game.Match, logger *zap.Logger, opts ...GatewayOption) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = protocol.DefaultMaxFrameBytes
	}
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = 64
	}
	g := &Gateway{
		cfg:     cfg,
		match:   match,
		logger:  logger.With(zap.String("match_id", match.ID().String())),
		mailbox: make(chan event, 32),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ListenAndServe listens on the configured address and calls Serve.
func (g *Gateway) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", g.cfg.Address, err)
	}
	return g.Serve(ctx, ln)
}

// Serve accepts player connections on ln and runs the match. It returns when
// ctx is cancelled or after the linger period following game over.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.logger.Info("gateway listening", zap.String("address", ln.Addr().String()))
	if g.replays != nil {
		g.replays.StartRecording(g.match.ID().String())
	}
	g.setServing(true)

	g.wg.Add(1)
	go g.acceptLoop(ctx, ln)

	err := g.run(ctx)

	close(g.stopped)
	ln.Close()
	if g.resolveTimer != nil {
		g.resolveTimer.Stop()
	}
	for i, c := range g.conns {
		if c != nil {
			close(c.send)
			g.conns[i] = nil
		}
	}
	g.wg.Wait()
	g.logger.Info("gateway stopped")
	return err
}

func (g *Gateway) setServing(serving bool) {
	if g.status != nil {
		g.status.SetServing(serving)
	}
}

// post hands an event to the actor unless it has stopped.
func (g *Gateway) post(ev event) bool {
	select {
	case g.mailbox <- ev:
		return true
	case <-g.stopped:
		return false
	}
}

func (g *Gateway) acceptLoop(ctx context.Context, ln net.Listener) {
	defer g.wg.Done()
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			g.logger.Warn("accept failed", zap.Error(err))
			continue
		}
		g.logger.Info("new connection", zap.String("remote", nc.RemoteAddr().String()))
		if !g.post(joinEvent{nc: nc}) {
			nc.Close()
			return
		}
	}
}

func (g *Gateway) run(ctx context.Context) error {
	var linger <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-linger:
			g.logger.Info("linger period over, shutting down")
			return nil
		case ev := <-g.mailbox:
			g.handle(ev)
		}

		if linger == nil && g.match.IsOver() {
			g.onGameOver()
			linger = time.After(g.cfg.Linger)
		}
	}
}

func (g *Gateway) handle(ev event) {
	switch ev := ev.(type) {
	case joinEvent:
		g.join(ev.nc)
	case actionEvent:
		if g.conns[ev.c.seat] != ev.c {
			return
		}
		g.handleAction(ev.c, ev.action)
	case leaveEvent:
		g.leave(ev.c)
	case resolveEvent:
		g.resolveTimer = nil
		g.resolveRound()
	}
}

func (g *Gateway) join(nc net.Conn) {
	seat, ok := g.match.FreeSeat()
	if !ok {
		g.logger.Info("rejecting connection, no free seat",
			zap.String("remote", nc.RemoteAddr().String()),
			zap.String("phase", g.match.Phase().String()),
		)
		nc.Close()
		return
	}
	if err := g.match.Join(seat); err != nil {
		g.logger.Warn("failed to join seat", zap.String("seat", seat.Key()), zap.Error(err))
		nc.Close()
		return
	}

	c := &conn{
		id:   uuid.New(),
		seat: seat,
		nc:   nc,
		send: make(chan []byte, g.cfg.SendQueue),
	}
	g.conns[seat] = c

	g.wg.Add(2)
	go g.writeLoop(c)
	go g.readLoop(c)

	g.logger.Info("player connected",
		zap.String("seat", seat.Key()),
		zap.String("conn_id", c.id.String()),
	)
	g.sendTo(c, protocol.NewWelcome(int(seat), g.match.Name(seat), g.match.ID().String()))
	g.sendTo(c, protocol.NewGameUpdate(g.match.View(seat)))
	g.publish()
}

func (g *Gateway) leave(c *conn) {
	if g.conns[c.seat] != c {
		return
	}
	g.conns[c.seat] = nil
	close(c.send)

	cleared := g.match.Leave(c.seat)
	g.logger.Info("player disconnected",
		zap.String("seat", c.seat.Key()),
		zap.Bool("ready_cleared", cleared),
	)
	g.broadcast(protocol.NewPlayerDisconnected(int(c.seat)))
	g.publish()
}

func (g *Gateway) handleAction(c *conn, a protocol.Action) {
	log := g.logger.With(zap.String("seat", c.seat.Key()), zap.String("action", a.Action))

	switch a.Action {
	case protocol.ActionReady:
		res, err := g.match.SubmitDeck(c.seat, a.DeckCards)
		if err != nil {
			g.reject(c, err)
			return
		}
		if res.NewlyReady {
			g.broadcast(protocol.NewPlayerReady(int(c.seat), res.ReadyCount))
		}
		if res.Started {
			log.Info("both players ready, game started")
			g.broadcastState()
		}

	case protocol.ActionPlaceCard:
		if a.CardIndex == nil {
			g.notice(c, "Choose a card to play!")
			return
		}
		zone, err := board.ParseZoneKey(a.LineKey)
		if err != nil {
			log.Debug("bad zone key", zap.Error(err))
			g.notice(c, "Unknown line!")
			return
		}
		placed, err := g.match.PlaceCard(c.seat, *a.CardIndex, zone)
		if err != nil {
			g.reject(c, err)
			return
		}
		if placed.Fault != nil {
			log.Warn("placement completed with ability fault", zap.Error(placed.Fault))
		}
		g.broadcastState()

	case protocol.ActionPassTurn:
		if err := g.match.Pass(c.seat); err != nil {
			g.reject(c, err)
			return
		}
		g.broadcastState()
		if g.match.Phase() == game.PhaseRoundResolution {
			g.scheduleResolve()
		}

	case protocol.ActionChatMessage:
		text, err := g.match.Chat(c.seat, a.Message)
		if err != nil {
			log.Debug("chat rejected", zap.Error(err))
			return
		}
		g.broadcast(protocol.NewChatMessage(int(c.seat), g.match.Name(c.seat), text))

	default:
		log.Debug("ignoring unknown action")
	}
}

func (g *Gateway) scheduleResolve() {
	if g.cfg.ResolveDelay <= 0 {
		g.resolveRound()
		return
	}
	if g.resolveTimer != nil {
		return
	}
	g.resolveTimer = time.AfterFunc(g.cfg.ResolveDelay, func() {
		g.post(resolveEvent{})
	})
}

func (g *Gateway) resolveRound() {
	res, err := g.match.ResolveRound()
	if err != nil {
		g.logger.Debug("round resolution skipped", zap.Error(err))
		return
	}
	g.logger.Info("round finished",
		zap.Int("round", res.Round),
		zap.String("winner", res.Winner),
		zap.Bool("game_over", res.GameOver),
	)
	g.broadcastState()
}

func (g *Gateway) onGameOver() {
	g.logger.Info("match over, lingering",
		zap.String("winner", g.match.Winner()),
		zap.Duration("linger", g.cfg.Linger),
	)
	g.setServing(false)
	if g.replays != nil {
		if err := g.replays.SaveReplay(g.match.ID().String()); err != nil {
			g.logger.Warn("failed to save replay", zap.Error(err))
		}
	}
}

// reject answers a rule violation with a private update. Other errors are
// only logged.
func (g *Gateway) reject(c *conn, err error) {
	msg, ok := game.UserMessage(err)
	if !ok {
		g.logger.Warn("action failed", zap.String("seat", c.seat.Key()), zap.Error(err))
		return
	}
	g.logger.Debug("action rejected", zap.String("seat", c.seat.Key()), zap.Error(err))
	g.notice(c, msg)
}

func (g *Gateway) notice(c *conn, message string) {
	g.sendTo(c, protocol.NewGameUpdate(g.match.NoticeView(c.seat, message)))
}

// broadcastState sends every seat its own view of the same state, then
// feeds publishers and the replay.
func (g *Gateway) broadcastState() {
	for _, c := range g.conns {
		if c != nil {
			g.sendTo(c, protocol.NewGameUpdate(g.match.View(c.seat)))
		}
	}
	g.publish()
	if g.replays != nil {
		g.replays.RecordState(g.match.ID().String(), g.match.FullView())
	}
}

func (g *Gateway) publish() {
	if len(g.publishers) == 0 {
		return
	}
	snapshot := protocol.NewGameUpdate(g.match.SpectatorView())
	for _, p := range g.publishers {
		p.Publish(g.match.ID().String(), snapshot)
	}
}

func (g *Gateway) broadcast(msg any) {
	for _, c := range g.conns {
		if c != nil {
			g.sendTo(c, msg)
		}
	}
}

// sendTo queues msg for c. A connection whose queue is full is closed; its
// reader then reports the disconnect.
func (g *Gateway) sendTo(c *conn, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		g.logger.Error("failed to encode message", zap.Error(err))
		return
	}
	select {
	case c.send <- payload:
	default:
		g.logger.Warn("send queue full, dropping connection", zap.String("seat", c.seat.Key()))
		c.nc.Close()
	}
}

func (g *Gateway) writeLoop(c *conn) {
	defer g.wg.Done()
	defer c.nc.Close()

	for payload := range c.send {
		c.nc.SetWriteDeadline(time.Now().Add(writeWait))
		if err := protocol.WriteFrame(c.nc, payload); err != nil {
			g.logger.Info("write failed", zap.String("seat", c.seat.Key()), zap.Error(err))
			return
		}
	}
}

func (g *Gateway) readLoop(c *conn) {
	defer g.wg.Done()
	defer g.post(leaveEvent{c: c})

	for {
		payload, err := protocol.ReadFrame(c.nc, g.cfg.MaxFrameBytes)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				g.logger.Debug("connection closed", zap.String("seat", c.seat.Key()))
			case errors.Is(err, protocol.ErrEmptyFrame):
				continue
			default:
				g.logger.Info("read failed", zap.String("seat", c.seat.Key()), zap.Error(err))
			}
			c.nc.Close()
			return
		}

		action, err := protocol.DecodeAction(payload)
		if err != nil {
			g.logger.Info("malformed action", zap.String("seat", c.seat.Key()), zap.Error(err))
			continue
		}
		if !g.post(actionEvent{c: c, action: action}) {
			return
		}
	}
}
