package webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"time"

	"signal_bot/internal/models"
	"signal_bot/internal/runner"
	"signal_bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const maxBody = 64 << 10

type Dispatcher interface {
	Dispatch(sig models.Signal) error
}

type Estimator interface {
	Estimate(ctx context.Context, sig models.Signal) (runner.Estimate, error)
}

// Recorder is told about every accepted signal.
type Recorder interface {
	TouchSignal(t time.Time)
}

type Defaults struct {
	Leverage      decimal.Decimal
	PositionRatio decimal.Decimal
}

type Handler struct {
	token    string
	defaults Defaults
	dispatch Dispatcher
	estimate Estimator
	rec      Recorder
}

func NewHandler(token string, defaults Defaults, d Dispatcher, e Estimator, rec Recorder) *Handler {
	return &Handler{token: token, defaults: defaults, dispatch: d, estimate: e, rec: rec}
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/webhook", h.webhook)
	r.POST("/estimate", h.estimateMax)
}

var (
	errNoPayload = errors.New("no JSON data received")
	errBadNumber = errors.New("leverage, positionRatio and price must be numeric")
)

// parse reads an alert body. Numeric fields may be JSON numbers or strings.
func (h *Handler) parse(c *gin.Context) (models.Signal, int, error) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
	if err != nil || len(raw) == 0 || !gjson.ValidBytes(raw) {
		return models.Signal{}, http.StatusBadRequest, errNoPayload
	}
	body := gjson.ParseBytes(raw)
	if !body.IsObject() {
		return models.Signal{}, http.StatusBadRequest, errNoPayload
	}

	if subtle.ConstantTimeCompare([]byte(body.Get("token").String()), []byte(h.token)) != 1 {
		return models.Signal{}, http.StatusUnauthorized, errors.New("invalid token")
	}

	ticker, action, sentiment := models.NormalizeSignal(
		body.Get("ticker").String(),
		body.Get("action").String(),
		body.Get("sentiment").String(),
	)
	sig := models.Signal{
		Ticker:        ticker,
		Action:        action,
		Sentiment:     sentiment,
		Leverage:      h.defaults.Leverage,
		PositionRatio: h.defaults.PositionRatio,
	}

	var perr error
	sig.Leverage = decimalField(body, "leverage", sig.Leverage, &perr)
	sig.PositionRatio = decimalField(body, "positionRatio", sig.PositionRatio, &perr)
	// zero price means no override
	if v := body.Get("price"); v.Exists() && v.String() != "" {
		p, err := decimal.NewFromString(v.String())
		switch {
		case err != nil:
			perr = errBadNumber
		case !p.IsZero():
			sig.Price = &p
		}
	}
	if perr != nil {
		return sig, http.StatusBadRequest, perr
	}
	return sig, 0, nil
}

func decimalField(body gjson.Result, key string, def decimal.Decimal, perr *error) decimal.Decimal {
	v := body.Get(key)
	if !v.Exists() || v.String() == "" {
		return def
	}
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		*perr = errBadNumber
		return def
	}
	return d
}

func (h *Handler) webhook(c *gin.Context) {
	sig, code, err := h.parse(c)
	if err != nil {
		logger.Warn("webhook rejected (%d): %v", code, err)
		c.JSON(code, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if err := runner.ValidateSignal(sig); err != nil {
		logger.Warn("webhook rejected: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if err := h.dispatch.Dispatch(sig); err != nil {
		logger.Warn("webhook refused %s: %v", sig.Ticker, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": err.Error()})
		return
	}
	logger.Info("signal accepted: %s %s/%s lev=%s ratio=%s", sig.Ticker, sig.Action, sig.Sentiment, sig.Leverage, sig.PositionRatio)
	if h.rec != nil {
		h.rec.TouchSignal(time.Now())
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "signal accepted for " + sig.Ticker,
	})
}

func (h *Handler) estimateMax(c *gin.Context) {
	sig, code, err := h.parse(c)
	if err != nil {
		c.JSON(code, gin.H{"status": "error", "message": err.Error()})
		return
	}
	est, err := h.estimate.Estimate(c.Request.Context(), sig)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, runner.ErrInvalidSignal) || errors.Is(err, runner.ErrInvalidPrice) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": est})
}
