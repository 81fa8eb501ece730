// Package feed accepts price ticks over a websocket and applies them
// to the engine, acknowledging each tick with the updated equity.
package feed

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/orcvnrln/papersim/internal/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type tickMessage struct {
	Prices map[string]float64 `json:"prices"`
}

type tickAck struct {
	Equity      float64 `json:"equity"`
	Cash        float64 `json:"cash"`
	DrawdownPct float64 `json:"drawdown_pct"`
}

// Feed streams price ticks into an engine.
type Feed struct {
	engine *engine.Engine
}

// New creates a price feed bound to an engine.
func New(e *engine.Engine) *Feed {
	return &Feed{engine: e}
}

// StreamHandler upgrades the connection and processes ticks until the
// client disconnects.
func (f *Feed) StreamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		logger := log.With().Str("component", "price_feed").Str("remote", conn.RemoteAddr().String()).Logger()
		logger.Info().Msg("price stream connected")

		for {
			var tick tickMessage
			if err := conn.ReadJSON(&tick); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warn().Err(err).Msg("price stream read error")
				}
				return
			}
			if len(tick.Prices) == 0 {
				continue
			}

			snapshot := f.engine.UpdatePrices(tick.Prices)
			ack := tickAck{
				Equity:      snapshot.Equity,
				Cash:        snapshot.Cash,
				DrawdownPct: snapshot.DrawdownPct,
			}
			if err := conn.WriteJSON(ack); err != nil {
				logger.Warn().Err(err).Msg("price stream write error")
				return
			}
		}
	}
}
