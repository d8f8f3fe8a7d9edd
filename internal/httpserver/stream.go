package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/agent"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/media"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  65536,
	WriteBufferSize: 65536,
	// Twilio connects server-to-server with no Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// outFrameBytes is 20ms of μ-law at 8kHz, the frame size Twilio itself sends.
const outFrameBytes = 160

// streamEvent is one Twilio Media Streams message, inbound or outbound.
// Events: "connected", "start", "media", "mark", "stop".
type streamEvent struct {
	Event     string          `json:"event"`
	StreamSid string          `json:"streamSid,omitempty"`
	Start     *streamStart    `json:"start,omitempty"`
	Media     *streamMedia    `json:"media,omitempty"`
	Stop      *streamStop     `json:"stop,omitempty"`
	Mark      json.RawMessage `json:"mark,omitempty"`
}

type streamStart struct {
	CallSid          string            `json:"callSid"`
	StreamSid        string            `json:"streamSid"`
	CustomParameters map[string]string `json:"customParameters"`
}

type streamMedia struct {
	Track   string `json:"track,omitempty"`
	Payload string `json:"payload"`
}

type streamStop struct {
	CallSid string `json:"callSid"`
}

// streamSink plays synthesized audio back into the Twilio stream, chunked to
// the wire's native frame size. Writes are serialized; the reader goroutine
// never writes.
type streamSink struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	streamSid string
	closed    bool
}

func (s *streamSink) Play(_ string, audio []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	for off := 0; off < len(audio); off += outFrameBytes {
		end := off + outFrameBytes
		if end > len(audio) {
			end = len(audio)
		}
		evt := streamEvent{
			Event:     "media",
			StreamSid: s.streamSid,
			Media:     &streamMedia{Payload: base64.StdEncoding.EncodeToString(audio[off:end])},
		}
		if err := s.conn.WriteJSON(evt); err != nil {
			s.closed = true
			return err
		}
	}
	return nil
}

func (s *streamSink) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// media upgrades to WebSocket and runs one call's media loop: frames in,
// utterances to the session, synthesized audio back out.
func (s *Server) media(c echo.Context) error {
	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Warn("media stream upgrade failed", zap.Error(err))
		return nil
	}
	defer func() { _ = conn.Close() }()

	var (
		callSid   string
		sink      *streamSink
		segmenter = media.NewSegmenter()
	)
	defer func() {
		if sink != nil {
			sink.close()
		}
		if callSid != "" {
			s.manager.EndSession(callSid)
		}
	}()

	for {
		var evt streamEvent
		if err := conn.ReadJSON(&evt); err != nil {
			if callSid != "" {
				s.log.Info("media stream closed", zap.String("call_sid", callSid), zap.Error(err))
			}
			return nil
		}

		switch evt.Event {
		case "connected":
			// Handshake frame, nothing to do until start arrives.

		case "start":
			if evt.Start == nil {
				continue
			}
			callSid = evt.Start.CallSid
			accountID := evt.Start.CustomParameters["account_id"]
			if accountID == "" {
				accountID = s.cfg.DefaultAccountID
			}
			sink = &streamSink{conn: conn, streamSid: evt.Start.StreamSid}
			if err := s.manager.StartSession(c.Request().Context(), callSid, accountID, sink); err != nil {
				s.log.Error("session start failed",
					zap.String("call_sid", callSid),
					zap.String("account_id", accountID),
					zap.Error(err))
				return nil
			}
			s.log.Info("media stream started",
				zap.String("call_sid", callSid),
				zap.String("stream_sid", evt.Start.StreamSid))

		case "media":
			if evt.Media == nil || callSid == "" {
				continue
			}
			frame, err := base64.StdEncoding.DecodeString(evt.Media.Payload)
			if err != nil {
				s.log.Warn("undecodable media payload", zap.String("call_sid", callSid))
				continue
			}
			if utterance, ok := segmenter.Push(frame, time.Now()); ok {
				s.manager.HandleCallerUtterance(callSid, agent.AudioInput(utterance))
			}

		case "stop":
			s.log.Info("media stream stopped", zap.String("call_sid", callSid))
			return nil
		}
	}
}
