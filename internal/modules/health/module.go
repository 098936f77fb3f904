package health

import (
	"context"
	"net/http"
	"time"

	"signal_bot/internal/account"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/health/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

type Handler struct {
	state *service.State
	snap  *account.Snapshot
	cfg   *config.Config
}

func NewHandler(state *service.State, snap *account.Snapshot, cfg *config.Config) *Handler {
	return &Handler{state: state, snap: snap, cfg: cfg}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/livez", h.livez)
	r.GET("/readyz", h.readyz)
	r.GET("/healthz", h.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *Handler) livez(c *gin.Context) {
	// liveness: the process is up
	c.String(http.StatusOK, "ok")
}

// readyz also fails while cached sizing has no account snapshot yet.
func (h *Handler) readyz(c *gin.Context) {
	if !h.state.Ready() {
		c.String(http.StatusServiceUnavailable, "not ready")
		return
	}
	if h.cfg.Trading.EnableCache && h.snap.Load() == nil {
		c.String(http.StatusServiceUnavailable, "account snapshot not loaded")
		return
	}
	c.String(http.StatusOK, "ready")
}

func (h *Handler) healthz(c *gin.Context) {
	resp := gin.H{
		"ready":         h.state.Ready(),
		"feedConnected": h.state.FeedConnected(),
		"uptimeSec":     int64(h.state.Uptime().Seconds()),
		"signals":       h.state.Signals(),
		"lastSignalUnix": func() int64 {
			t := h.state.LastSignal()
			if t.IsZero() {
				return 0
			}
			return t.Unix()
		}(),
		"exchange":  h.cfg.Exchange.Backend,
		"cacheMode": h.cfg.Trading.EnableCache,
	}
	if age, ok := h.snap.Age(time.Now()); ok {
		resp["snapshotAgeSec"] = int64(age.Seconds())
	}
	c.JSON(http.StatusOK, resp)
}

func register(r *gin.Engine, h *Handler) {
	h.Register(r)
}

func markReady(lc fx.Lifecycle, state *service.State) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			state.SetReady(true)
			return nil
		},
		OnStop: func(context.Context) error {
			state.SetReady(false)
			return nil
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewHandler,
		),
		fx.Invoke(register, markReady),
	)
}
