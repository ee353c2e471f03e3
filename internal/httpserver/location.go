package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quickcommerce/internal/realtime"
	"github.com/Skotchmaster/quickcommerce/internal/service"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/httpx"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

const (
	wsReadLimit  = 4096
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 25 * time.Second
	wsWriteWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type LocationHTTP struct {
	Svc *service.LocationService
	Hub *realtime.Hub
}

func (h *LocationHTTP) Record(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "location.record")

	var req transport.LocationRequest
	if err := bind(c, l, "record_location_failed", &req); err != nil {
		return err
	}
	p, err := h.Svc.Record(ctx, actor(c), req)
	if err != nil {
		return fail(l, "record_location_failed", err)
	}
	return httpx.OK(c, p)
}

func (h *LocationHTTP) TripLocation(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "location.trip")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "trip_location_failed", err)
	}
	p, err := h.Svc.TripPosition(ctx, actor(c), id)
	if err != nil {
		return fail(l, "trip_location_failed", err)
	}
	return httpx.OK(c, p)
}

// RiderStream reads GPS readings from a rider's socket. Readings are not
// acknowledged; malformed or invalid ones are dropped.
func (h *LocationHTTP) RiderStream(c echo.Context) error {
	a := actor(c)
	ctx := context.WithoutCancel(c.Request().Context())
	l := logging.FromContext(ctx).With("handler", "location.rider_ws", "rider_id", a.UserID)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		l.Warn("ws_upgrade_failed", "error", err)
		return nil
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go keepAlive(conn, done)

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	l.Info("rider_stream_open")
	var accepted, dropped int
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.Debug("rider_stream_read_end", "error", err)
			}
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var req transport.LocationRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			dropped++
			continue
		}
		if _, err := h.Svc.Record(ctx, a, req); err != nil {
			dropped++
			if !errors.Is(err, service.ErrValidation) && !errors.Is(err, service.ErrNotFound) {
				l.Warn("rider_stream_record_failed", "error", err)
			}
			continue
		}
		accepted++
	}
	l.Info("rider_stream_closed", "accepted", accepted, "dropped", dropped)
	return nil
}

// Track pushes every new position of a trip's rider to the watcher, starting
// with the latest known one.
func (h *LocationHTTP) Track(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "location.track")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "track_failed", err)
	}
	a := actor(c)
	riderID, err := h.Svc.TripRider(ctx, a, id)
	if err != nil {
		return fail(l, "track_failed", err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		l.Warn("ws_upgrade_failed", "error", err)
		return nil
	}
	defer conn.Close()

	positions, cancel := h.Hub.Subscribe(riderID)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(wsReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if p, err := h.Svc.Latest(ctx, riderID); err == nil && p != nil {
		if err := writeJSON(conn, p); err != nil {
			return nil
		}
	}

	l.Info("track_open", "trip_id", id, "rider_id", riderID)
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			l.Info("track_closed", "trip_id", id)
			return nil
		case p, ok := <-positions:
			if !ok {
				return nil
			}
			if err := writeJSON(conn, p); err != nil {
				return nil
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}

// keepAlive pings until done is closed. It is the only writer on conn.
func keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	t := time.NewTicker(wsPingPeriod)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
