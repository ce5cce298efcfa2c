package http

import (
	"context"
	"log/slog"
	"net/http"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/domain"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// WSHandler runs one quiz session per websocket connection. The connection is
// the presentation layer: it sends actions and receives every new state.
type WSHandler struct {
	source   app.QuestionSource
	options  app.Options
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(source app.QuestionSource, options app.Options) *WSHandler {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		source:  source,
		options: options,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Option *int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// StateView is the observable state plus the values derived from it.
type StateView struct {
	domain.State
	NumQuestions      int `json:"numQuestions"`
	MaxPossiblePoints int `json:"maxPossiblePoints"`
	Percentage        int `json:"percentage"`
}

func NewStateView(state domain.State) StateView {
	return StateView{
		State:             state,
		NumQuestions:      state.NumQuestions(),
		MaxPossiblePoints: state.MaxPossiblePoints(),
		Percentage:        state.Percentage(),
	}
}

// ServeWS upgrades HTTP requests to websockets and drives a fresh quiz session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := app.NewSession(h.options)
	logger := h.logger.With("session", session.ID(), "remote_addr", r.RemoteAddr)
	go func() {
		_ = session.Run(ctx)
	}()

	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()
	if err := session.Load(ctx, h.source); err != nil {
		logger.Error("load questions", "error", err)
		return
	}
	logger.Info("quiz session opened")

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warn("ws write error", "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case state, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: NewStateView(state)}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		action, err := decodeAction(inbound)
		if err == nil {
			err = session.Dispatch(ctx, action)
		}
		if err != nil {
			select {
			case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}:
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
	logger.Info("quiz session closed", "status", session.Snapshot().Status, "highScore", session.Snapshot().HighScore)
}

func decodeAction(msg inboundMessage) (app.Action, error) {
	switch msg.Type {
	case app.Start{}.Kind():
		return app.Start{}, nil
	case app.NewAnswer{}.Kind():
		var payload answerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Option == nil {
			return nil, errors.New("invalid answer payload")
		}
		return app.NewAnswer{Selected: *payload.Option}, nil
	case app.NextQuestion{}.Kind():
		return app.NextQuestion{}, nil
	case app.Finish{}.Kind():
		return app.Finish{}, nil
	case app.Restart{}.Kind():
		return app.Restart{}, nil
	case app.Tick{}.Kind(), app.DataReceived{}.Kind(), app.DataFailed{}.Kind():
		return nil, errors.Wrap(domain.ErrReservedAction, msg.Type)
	default:
		return nil, errors.New("unsupported message type")
	}
}
