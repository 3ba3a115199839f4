package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	fhttp "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/pkg/metrics"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedClients(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "fulfillment_feed_clients" {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return 0
}

func startHub(t *testing.T) (*fhttp.Hub, *prometheus.Registry, string) {
	t.Helper()
	reg := prometheus.NewRegistry()
	hub := fhttp.NewHub(nil, metrics.New(reg))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()

	e := echo.New()
	e.HTTPErrorHandler = fhttp.ErrorHandler(logger.Nop())
	e.GET("/api/v1/feed", hub.Subscribe)
	server := httptest.NewServer(e)

	t.Cleanup(func() {
		cancel()
		<-done
		server.Close()
	})
	return hub, reg, "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/feed"
}

func event(status order.Status, vendor kernel.UUID, driver *kernel.UUID) ports.OrderEvent {
	return ports.OrderEvent{
		OrderID:       kernel.NewUUID(),
		VendorID:      vendor,
		CustomerID:    kernel.NewUUID(),
		DriverID:      driver,
		Status:        status,
		PaymentStatus: order.PaymentAuthorized,
		OccurredAt:    time.Now().UTC(),
	}
}

func TestHub_DeliversMatchingEvents(t *testing.T) {
	hub, reg, url := startHub(t)
	vendor := kernel.NewUUID()

	conn, _, err := websocket.DefaultDialer.Dial(url+"?status=awaiting_driver", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return feedClients(t, reg) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(event(order.Preparing, vendor, nil))
	want := event(order.AwaitingDriver, vendor, nil)
	hub.Publish(want)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got fhttp.FeedEvent
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, want.OrderID.String(), got.OrderID)
	assert.Equal(t, "awaiting_driver", got.Status)
	assert.Nil(t, got.DriverID)
}

func TestHub_DriverFilter(t *testing.T) {
	hub, reg, url := startHub(t)
	driver := kernel.NewUUID()
	other := kernel.NewUUID()

	conn, _, err := websocket.DefaultDialer.Dial(url+"?driver_id="+driver.String(), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return feedClients(t, reg) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(event(order.AwaitingDriver, kernel.NewUUID(), nil))
	hub.Publish(event(order.DriverToPickup, kernel.NewUUID(), &other))
	want := event(order.DriverToPickup, kernel.NewUUID(), &driver)
	hub.Publish(want)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got fhttp.FeedEvent
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, want.OrderID.String(), got.OrderID)
	require.NotNil(t, got.DriverID)
	assert.Equal(t, driver.String(), *got.DriverID)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	_, reg, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return feedClients(t, reg) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return feedClients(t, reg) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsBadFilter(t *testing.T) {
	_, _, url := startHub(t)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?status=teleported", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}
