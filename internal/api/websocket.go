package api

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

const (
	// liveReadLimit caps one vitals frame; readings are small JSON objects.
	liveReadLimit = 4 << 10

	// liveIdleTimeout closes a connection that sends nothing. Each received
	// frame extends the deadline.
	liveIdleTimeout = 5 * time.Minute

	liveWriteTimeout = 10 * time.Second
)

// liveVitalsUpdate is one server frame on the live channel: the alerts and
// trends recomputed for the reading the client just sent.
type liveVitalsUpdate struct {
	Alerts []domain.LocalAlert   `json:"alerts"`
	Trends []domain.TrendInsight `json:"trends"`
}

type liveVitalsError struct {
	Error string `json:"error"`
}

// handleVitalsLive serves the live vitals channel. Every client frame is one
// vitals reading; the server answers each with freshly computed alerts and
// trends, so the view tracks every input change without polling.
func (s *Server) handleVitalsLive(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Live vitals upgrade failed")
		return
	}
	defer conn.Close()

	log := s.logger.WithFields(logrus.Fields{
		"correlation_id": c.GetString("correlation_id"),
		"client_ip":      c.ClientIP(),
	})
	log.Info("Live vitals channel opened")

	ctx := c.Request.Context()
	conn.SetReadLimit(liveReadLimit)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(liveIdleTimeout))

		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("Live vitals channel closed abnormally")
			}
			return
		}

		var reading domain.VitalsReading
		if err := json.Unmarshal(data, &reading); err != nil {
			if werr := s.writeLive(conn, liveVitalsError{Error: "vitals payload could not be parsed"}); werr != nil {
				return
			}
			continue
		}

		update := liveVitalsUpdate{
			Alerts: s.classifier.Classify(reading),
			Trends: []domain.TrendInsight{},
		}
		if insights := s.trends.Analyze(reading, s.historySnapshot(ctx)); insights != nil {
			update.Trends = insights
		}

		if err := s.writeLive(conn, update); err != nil {
			log.WithError(err).Debug("Live vitals write failed")
			return
		}
	}
}

// writeLive sends one JSON frame under the write deadline.
func (s *Server) writeLive(conn *websocket.Conn, payload interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	return conn.WriteJSON(payload)
}
