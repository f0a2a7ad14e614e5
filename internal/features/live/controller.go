package live

import (
	"context"
	"sync"

	"go-dashboards/internal/config"
	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/features/query"
	"go-dashboards/internal/logger"
	"go-dashboards/internal/viewer"
	"go-dashboards/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// outboxSize bounds pending pushes per connection.
const outboxSize = 16

type LiveController struct {
	Dashboards dashboard.DashboardService
	Queries    query.QueryService
	Config     *config.Config
	Logger     *zap.Logger
}

func NewLiveController(dashboards dashboard.DashboardService, queries query.QueryService, cfg *config.Config, log *zap.Logger) *LiveController {
	return &LiveController{
		Dashboards: dashboards,
		Queries:    queries,
		Config:     cfg,
		Logger:     logger.OrNop(log),
	}
}

// connection pushes messages from a single writer goroutine.
type connection struct {
	conn   *websocket.Conn
	outbox chan Message
	done   chan struct{}
	once   sync.Once
	log    *zap.Logger
}

func (c *connection) send(msg Message) {
	select {
	case c.outbox <- msg:
	case <-c.done:
	}
}

func (c *connection) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *connection) writeLoop(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case msg := <-c.outbox:
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Debug("websocket write failed", zap.Error(err))
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// ServeDashboard runs one live view for the lifetime of the connection.
func (ctrl *LiveController) ServeDashboard(conn *websocket.Conn) {
	user, _ := conn.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	key := conn.Params("key")
	token := conn.Query("token")
	log := ctrl.Logger.With(zap.String(logger.FieldDashboardKey, key))

	c := &connection{conn: conn, outbox: make(chan Message, outboxSize), done: make(chan struct{}), log: log}
	var wg sync.WaitGroup
	wg.Add(1)
	go c.writeLoop(&wg)

	var session *viewer.Session
	session = viewer.NewSession(viewer.NewLocalAccess(ctrl.Dashboards, ctrl.Queries, user), viewer.Options{
		Token:                 token,
		MaxConcurrentSections: ctrl.Config.MaxConcurrentSections,
		Logger:                log,
		OnUpdate: func(snap viewer.Snapshot) {
			c.send(stateMessage(session.Structure(), snap))
		},
	})
	defer func() {
		session.Close()
		c.close()
		wg.Wait()
	}()

	ctx := context.Background()
	if err := session.Open(ctx, key); err != nil {
		c.send(errorMessage(err))
		if session.Structure() == nil {
			return
		}
	}
	// Nothing was loaded when required filters are unset; show the gate.
	if snap := session.Snapshot(); len(snap.Missing) > 0 {
		c.send(stateMessage(session.Structure(), snap))
	}

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Debug("websocket closed", zap.Error(err))
			return
		}

		var err error
		switch msg.Type {
		case TypeSetFilter:
			var value any
			value, err = coerceValue(session.Structure(), msg.Name, msg.Value)
			if err == nil {
				err = session.SetFilter(msg.Name, value)
			}
		case TypeApply:
			err = session.Apply(ctx)
		case TypeRefresh:
			err = session.Refresh(ctx)
		case TypeReset:
			if err = session.ResetFilters(); err == nil {
				c.send(stateMessage(session.Structure(), session.Snapshot()))
			}
		case TypeWidgetData:
			var data any
			if data, err = session.WidgetData(ctx, msg.Name); err == nil {
				c.send(Message{Type: TypeWidgetData, WidgetID: msg.Name, Data: data})
			}
		default:
			c.send(Message{Type: TypeError, Message: "unknown message type " + msg.Type})
			continue
		}
		if err != nil {
			c.send(errorMessage(err))
		}
	}
}
