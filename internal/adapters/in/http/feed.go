package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/pkg/metrics"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	clientBuffer   = 64
	broadcastQueue = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// FeedFilter selects the events a subscriber receives. Unset fields match
// everything.
type FeedFilter struct {
	Status   *order.Status
	DriverID *kernel.UUID
	VendorID *kernel.UUID
}

func (f FeedFilter) matches(e ports.OrderEvent) bool {
	if f.Status != nil && *f.Status != e.Status {
		return false
	}
	if f.VendorID != nil && !f.VendorID.IsEqual(e.VendorID) {
		return false
	}
	if f.DriverID != nil && (e.DriverID == nil || !f.DriverID.IsEqual(*e.DriverID)) {
		return false
	}
	return true
}

type FeedEvent struct {
	OrderID       string    `json:"order_id"`
	VendorID      string    `json:"vendor_id"`
	CustomerID    string    `json:"customer_id"`
	DriverID      *string   `json:"driver_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func feedEvent(e ports.OrderEvent) FeedEvent {
	out := FeedEvent{
		OrderID:       e.OrderID.String(),
		VendorID:      e.VendorID.String(),
		CustomerID:    e.CustomerID.String(),
		Status:        e.Status.String(),
		PaymentStatus: string(e.PaymentStatus),
		OccurredAt:    e.OccurredAt,
	}
	if e.DriverID != nil {
		id := e.DriverID.String()
		out.DriverID = &id
	}
	return out
}

type subscriber struct {
	hub    *Hub
	conn   *websocket.Conn
	filter FeedFilter
	send   chan []byte
}

// Hub fans committed order events out to websocket subscribers.
type Hub struct {
	clients    map[*subscriber]struct{}
	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan ports.OrderEvent
	done       chan struct{}
	log        *logger.Logger
	metrics    *metrics.Metrics
}

func NewHub(log *logger.Logger, m *metrics.Metrics) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients:    make(map[*subscriber]struct{}),
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan ports.OrderEvent, broadcastQueue),
		done:       make(chan struct{}),
		log:        log,
		metrics:    m,
	}
}

// Publish queues e for delivery. It is the sink of the change feed and
// drops the event when the hub is saturated.
func (h *Hub) Publish(e ports.OrderEvent) {
	select {
	case h.broadcast <- e:
	default:
		ctx := h.log.WithOrderID(context.Background(), e.OrderID.String())
		h.log.Warn(ctx, "feed hub saturated, event dropped", nil)
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every subscriber.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for s := range h.clients {
				h.drop(s)
			}
			return nil

		case s := <-h.register:
			h.clients[s] = struct{}{}
			h.metrics.FeedClients(1)

		case s := <-h.unregister:
			h.drop(s)

		case e := <-h.broadcast:
			message, err := json.Marshal(feedEvent(e))
			if err != nil {
				h.log.Error(ctx, "encode feed event", err)
				continue
			}
			for s := range h.clients {
				if !s.filter.matches(e) {
					continue
				}
				select {
				case s.send <- message:
				default:
					h.drop(s)
				}
			}
		}
	}
}

func (h *Hub) drop(s *subscriber) {
	if _, ok := h.clients[s]; !ok {
		return
	}
	delete(h.clients, s)
	close(s.send)
	h.metrics.FeedClients(-1)
}

// Subscribe handles GET /api/v1/feed. Query parameters status, driver_id and
// vendor_id narrow the stream.
func (h *Hub) Subscribe(c echo.Context) error {
	var (
		filter FeedFilter
		err    error
	)
	status, err := queryString(c, "status")
	if err != nil {
		return err
	}
	if status != "" {
		parsed, err := order.ParseStatus(status)
		if err != nil {
			return badRequest(err)
		}
		filter.Status = &parsed
	}
	if filter.DriverID, err = queryUUID(c, "driver_id"); err != nil {
		return err
	}
	if filter.VendorID, err = queryUUID(c, "vendor_id"); err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	s := &subscriber{hub: h, conn: conn, filter: filter, send: make(chan []byte, clientBuffer)}
	select {
	case h.register <- s:
	case <-h.done:
		return conn.Close()
	case <-c.Request().Context().Done():
		return conn.Close()
	}

	go s.writePump()
	s.readPump()
	return nil
}

// readPump only watches for disconnects; subscribers never send.
func (s *subscriber) readPump() {
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.log.Warn(context.Background(), "feed subscriber closed", err)
			}
			return
		}
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
