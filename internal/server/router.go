package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/franklstreet-svg/twickell/internal/metrics"
	"github.com/franklstreet-svg/twickell/internal/service"
	"github.com/franklstreet-svg/twickell/internal/supervisor"
)

// Router exposes the supervisor's operations over HTTP.
// Endpoints under basePath:
//
//	GET  {basePath}/status            all services
//	GET  {basePath}/status?name=...   one service
//	POST {basePath}/start?name=...
//	POST {basePath}/stop?name=...
//	POST {basePath}/restart?name=...
//	GET  {basePath}/healthz
//
// Start/stop/restart outcomes are always reported as a textual result in
// a 200 response; only unknown names and missing parameters are HTTP
// errors.
type Router struct {
	sup      *supervisor.Supervisor
	specs    []service.Spec
	basePath string
}

func NewRouter(sup *supervisor.Supervisor, specs []service.Spec, basePath string) *Router {
	return &Router{sup: sup, specs: specs, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.POST("/start", r.handleStart)
	group.POST("/stop", r.handleStop)
	group.POST("/restart", r.handleRestart)
	group.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, okResp{OK: true}) })
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer wires a Router into a standalone *http.Server with sane
// timeouts. The caller owns ListenAndServe and Shutdown.
func NewServer(addr, basePath string, sup *supervisor.Supervisor, specs []service.Spec) *http.Server {
	r := NewRouter(sup, specs, basePath)
	return &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

type actionResp struct {
	Service string `json:"service"`
	Result  string `json:"result"`
	Detail  string `json:"detail,omitempty"`
}

func (r *Router) handleStatus(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		handles := make([]service.Handle, 0, len(r.specs))
		for _, sp := range r.specs {
			handles = append(handles, r.sup.Status(c.Request.Context(), sp))
		}
		c.JSON(http.StatusOK, handles)
		return
	}
	sp, ok := r.findSpec(name)
	if !ok {
		c.JSON(http.StatusNotFound, errorResp{Error: "unknown service: " + name})
		return
	}
	c.JSON(http.StatusOK, r.sup.Status(c.Request.Context(), sp))
}

func (r *Router) handleStart(c *gin.Context) {
	sp, ok := r.specFromQuery(c)
	if !ok {
		return
	}
	res, err := r.sup.Start(c.Request.Context(), sp)
	resp := actionResp{Service: sp.Name, Result: res.String()}
	if err != nil {
		resp.Detail = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Router) handleStop(c *gin.Context) {
	sp, ok := r.specFromQuery(c)
	if !ok {
		return
	}
	resp := actionResp{Service: sp.Name, Result: "STOPPED"}
	if err := r.sup.Stop(c.Request.Context(), sp); err != nil {
		resp.Result = "ERROR"
		resp.Detail = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Router) handleRestart(c *gin.Context) {
	sp, ok := r.specFromQuery(c)
	if !ok {
		return
	}
	res, err := r.sup.Restart(c.Request.Context(), sp)
	resp := actionResp{Service: sp.Name, Result: res.String()}
	if err != nil {
		resp.Detail = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Router) specFromQuery(c *gin.Context) (service.Spec, bool) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, errorResp{Error: "name query parameter required"})
		return service.Spec{}, false
	}
	sp, ok := r.findSpec(name)
	if !ok {
		c.JSON(http.StatusNotFound, errorResp{Error: "unknown service: " + name})
		return service.Spec{}, false
	}
	return sp, true
}

func (r *Router) findSpec(name string) (service.Spec, bool) {
	for _, sp := range r.specs {
		if sp.Name == name {
			return sp, true
		}
	}
	return service.Spec{}, false
}

func sanitizeBase(basePath string) string {
	bp := strings.TrimSpace(basePath)
	if bp == "" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	return strings.TrimRight(bp, "/")
}
