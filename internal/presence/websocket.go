package presence

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"
)

// Client frame types.
const (
	frameJoin = "join"
	framePing = "ping"
	framePong = "pong"
)

type clientFrame struct {
	Type string `json:"type"`
}

type wsPeer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *wsPeer) send(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return websocket.JSON.Send(p.conn, v)
}

// Server returns a websocket server that attaches each connection to userID's room.
// Origins are checked against allowed; an empty list accepts any origin.
func (b *Broker) Server(userID string, allowed []string) websocket.Server {
	return websocket.Server{
		Handshake: func(cfg *websocket.Config, r *http.Request) error {
			return checkOrigin(cfg, r, allowed)
		},
		Handler: func(conn *websocket.Conn) {
			b.Serve(conn, userID)
		},
	}
}

func checkOrigin(cfg *websocket.Config, r *http.Request, allowed []string) error {
	origin, err := websocket.Origin(cfg, r)
	if err != nil {
		return err
	}
	if len(allowed) == 0 || origin == nil {
		return nil
	}
	for _, a := range allowed {
		if u, err := url.Parse(a); err == nil && u.Scheme == origin.Scheme && u.Host == origin.Host {
			return nil
		}
	}
	return websocket.ErrBadWebSocketOrigin
}

// Serve joins the connection's room and pumps events until the client goes away.
func (b *Broker) Serve(conn *websocket.Conn, userID string) {
	peer := &wsPeer{conn: conn}
	sess := b.Connect(userID)
	b.Join(sess)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range sess.Events() {
			if err := peer.send(ev); err != nil {
				if b.Logger != nil {
					b.Logger.WithError(err).WithField("user_id", userID).Debug("presence write failed")
				}
				_ = conn.Close()
				// keep draining until Leave closes the channel
				for range sess.Events() {
				}
				return
			}
		}
	}()

	for {
		var f clientFrame
		if err := websocket.JSON.Receive(conn, &f); err != nil {
			break
		}
		switch f.Type {
		case frameJoin:
			b.Join(sess)
		case framePing:
			_ = peer.send(clientFrame{Type: framePong})
		default:
			if b.Logger != nil {
				b.Logger.WithFields(logrus.Fields{"user_id": userID, "frame": f.Type}).Debug("unknown presence frame")
			}
		}
	}

	b.Leave(sess)
	<-done
	_ = conn.Close()
}
