package internal

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type App struct {
	Config    *AppConfig
	Captioner *Captioner
	Poller    *Poller
	Upgrader  *websocket.Upgrader
	Stopper   Stopper
	Log       *logrus.Logger
}

func NewApp(c *AppConfig, captioner *Captioner, poller *Poller, stopper Stopper, log *logrus.Logger) *App {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	return &App{
		Config:    c,
		Captioner: captioner,
		Poller:    poller,
		Upgrader:  &upgrader,
		Stopper:   stopper,
		Log:       log,
	}
}

func (a *App) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ping": "ok"})
}

func (a *App) Shutdown(c *gin.Context) {
	a.Log.Info("Received shutdown")
	a.Stopper.Stop()
	c.JSON(http.StatusOK, gin.H{"shutdown": "ok"})
}

func (a *App) Caption(c *gin.Context) {
	var req CaptionRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		a.AbortWithError(c, InputError("bad query: %s", err.Error()))
		return
	}

	result, err := a.Captioner.Caption(c.Request.Context(), req.File)
	if err != nil {
		a.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (a *App) Health(c *gin.Context) {
	status := a.Poller.Status(c.Request.Context())

	code := http.StatusOK
	for _, s := range status {
		if !s.Healthy {
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{"backends": status})
}

func (a *App) errorStatus(e *Error) int {
	if a.Config.API.UniformErrorStatus {
		return http.StatusInternalServerError
	}
	return e.Kind.Status()
}

func (a *App) AbortWithError(c *gin.Context, err error) {
	e := AsError(err)
	_ = c.Error(e)

	status := a.errorStatus(e)
	entry := a.Log.WithError(e).WithField("kind", e.Kind).WithField("uri", c.Request.URL.String())
	if status >= http.StatusInternalServerError {
		entry.Error("Caption request failed")
	} else {
		entry.Warn("Caption request rejected")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: e.Body()})
}

// Recover turns a panic in any handler into the regular error body.
func (a *App) Recover(c *gin.Context, recovered any) {
	e := &Error{
		Kind: KindInternal,
		Msg:  fmt.Sprintf("panic: %v", recovered),
	}
	body := ErrorBody{
		Msg:   e.Msg,
		Kind:  string(e.Kind),
		Trace: TraceLines(string(debug.Stack())),
	}

	a.Log.WithField("panic", recovered).WithField("uri", c.Request.URL.String()).Error("Recovered from panic")
	c.AbortWithStatusJSON(a.errorStatus(e), ErrorResponse{Error: body})
}
