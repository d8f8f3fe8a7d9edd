package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/twilio/twilio-go/twiml"
	"go.uber.org/zap"

	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/agent"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/config"
	"github.com/Teledroit/mon-secretaria-backend2-sub000/internal/middleware"
)

// Server bundles the HTTP router and its dependencies.
type Server struct {
	Echo    *echo.Echo
	manager *agent.Manager
	cfg     config.Config
	log     *zap.Logger
}

// New constructs the HTTP server with routes. The webhook endpoints answer
// Twilio; the media endpoint carries the call's audio over WebSocket.
func New(cfg config.Config, manager *agent.Manager, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.TwilioAuth(func() string { return cfg.TwilioAuthToken }))

	s := &Server{Echo: e, manager: manager, cfg: cfg, log: logger}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.POST("/twilio/voice", s.voice)
	e.POST("/twilio/status", s.status)
	e.GET("/media", s.media)

	return s
}

// voice answers an incoming call: it tells Twilio to open a bidirectional
// media stream back to us, carrying the account id so the stream handler can
// load the right caller settings.
func (s *Server) voice(c echo.Context) error {
	params, ok := c.Get("twilioParams").(map[string]string)
	if !ok {
		return c.String(http.StatusInternalServerError, "Failed to get Twilio parameters")
	}

	callSid := params["CallSid"]
	if callSid == "" {
		return c.String(http.StatusBadRequest, "CallSid missing")
	}
	accountID := s.accountFor(params["To"])
	s.log.Info("incoming call",
		zap.String("call_sid", callSid),
		zap.String("from", params["From"]),
		zap.String("to", params["To"]),
		zap.String("account_id", accountID))

	host := s.cfg.PublicHost
	if host == "" {
		host = c.Request().Host
	}
	stream := &twiml.VoiceStream{
		Url: "wss://" + host + "/media",
		InnerElements: []twiml.Element{
			&twiml.VoiceParameter{Name: "account_id", Value: accountID},
		},
	}
	connect := &twiml.VoiceConnect{InnerElements: []twiml.Element{stream}}
	response, err := twiml.Voice([]twiml.Element{connect})
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to build TwiML")
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml")
	return c.String(http.StatusOK, response)
}

// status receives call lifecycle callbacks; a terminal status tears the
// session down even if the media stream never closed cleanly.
func (s *Server) status(c echo.Context) error {
	params, ok := c.Get("twilioParams").(map[string]string)
	if !ok {
		return c.String(http.StatusInternalServerError, "Failed to get Twilio parameters")
	}

	callSid := params["CallSid"]
	callStatus := params["CallStatus"]
	s.log.Info("call status", zap.String("call_sid", callSid), zap.String("status", callStatus))

	switch callStatus {
	case "completed", "busy", "failed", "no-answer", "canceled":
		s.manager.EndSession(callSid)
	}
	return c.String(http.StatusOK, "OK")
}

// accountFor maps the dialed number to the account whose settings answer the
// call. Each business line is one account; the dialed number is its id.
func (s *Server) accountFor(toNumber string) string {
	if toNumber != "" {
		return toNumber
	}
	return s.cfg.DefaultAccountID
}
