package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/techdesk-service/internal/api/dto"
	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/live"
	"github.com/spec-kit/techdesk-service/internal/observability"
	"github.com/spec-kit/techdesk-service/internal/service"
)

const liveActorKey = "live_actor"

type liveCommand struct {
	Action    string `json:"action"`
	CompanyID string `json:"companyId"`
}

type liveFrame struct {
	Type      string `json:"type"`
	Feed      string `json:"feed"`
	CompanyID string `json:"companyId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
}

// LiveHandler streams ticket and asset snapshots over WebSocket. Every
// connection owns one listener per feed.
type LiveHandler struct {
	tickets *service.TicketService
	assets  *service.AssetService
	lookup  *service.LookupService
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewLiveHandler constructs handler.
func NewLiveHandler(tickets *service.TicketService, assets *service.AssetService, lookup *service.LookupService,
	logger *zap.Logger, metrics *observability.Metrics) *LiveHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveHandler{tickets: tickets, assets: assets, lookup: lookup, logger: logger, metrics: metrics}
}

// Upgrade rejects plain HTTP requests and hands the caller to the socket.
func (h *LiveHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	c.Locals(liveActorKey, actor)
	return c.Next()
}

// Tickets handles GET /ws/admin/tickets.
func (h *LiveHandler) Tickets() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		serveFeed(conn, h, "tickets", h.tickets.NewTicketListener(), func(items []domain.Ticket) any {
			return dto.TicketsFromDomain(items)
		})
	})
}

// Assets handles GET /ws/admin/assets.
func (h *LiveHandler) Assets() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		serveFeed(conn, h, "assets", h.assets.NewAssetListener(), func(items []domain.Asset) any {
			return dto.AssetsFromDomain(items)
		})
	})
}

func serveFeed[T any](conn *websocket.Conn, h *LiveHandler, feed string, listener *live.Listener[T], encode func([]T) any) {
	actor, _ := conn.Locals(liveActorKey).(service.Actor)
	logger := h.logger.With(zap.String("feed", feed), zap.String("uid", actor.UID))
	h.metrics.LiveConnectionOpened(feed)
	defer h.metrics.LiveConnectionClosed(feed)
	defer listener.Unsubscribe()

	commands := make(chan liveCommand)
	quit := make(chan struct{})
	defer close(quit)
	readErr := make(chan error, 1)
	go func() {
		for {
			var cmd liveCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				readErr <- err
				return
			}
			select {
			case commands <- cmd:
			case <-quit:
				return
			}
		}
	}()

	write := func(frame liveFrame) bool {
		frame.Feed = feed
		if err := conn.WriteJSON(frame); err != nil {
			logger.Debug("live write failed", zap.Error(err))
			return false
		}
		return true
	}

	var updates <-chan []T
	for {
		select {
		case err := <-readErr:
			logger.Debug("live connection closed", zap.Error(err))
			return
		case cmd := <-commands:
			switch cmd.Action {
			case "subscribe":
				companyID := cmd.CompanyID
				if companyID == "" {
					companyID = actor.CompanyID
				}
				if _, ok := h.lookup.GetCompanyByID(companyID); !ok {
					if !write(liveFrame{Type: "error", CompanyID: companyID, Message: "unknown company"}) {
						return
					}
					continue
				}
				updates = listener.Subscribe(companyID).C()
				if !write(liveFrame{Type: "subscribed", CompanyID: companyID}) {
					return
				}
			case "unsubscribe":
				listener.Unsubscribe()
				updates = nil
				if !write(liveFrame{Type: "unsubscribed"}) {
					return
				}
			default:
				if !write(liveFrame{Type: "error", Message: "unknown action"}) {
					return
				}
			}
		case snapshot := <-updates:
			companyID := ""
			if sub := listener.Current(); sub != nil {
				companyID = sub.CompanyID()
			}
			if !write(liveFrame{Type: "snapshot", CompanyID: companyID, Data: encode(snapshot)}) {
				return
			}
		}
	}
}
