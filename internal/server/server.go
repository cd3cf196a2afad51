package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iceymoss/seedgen/internal/engine"
	"github.com/iceymoss/seedgen/internal/pipeline"
	"github.com/iceymoss/seedgen/internal/svc"
	"github.com/iceymoss/seedgen/internal/tasks"
	"github.com/iceymoss/seedgen/pkg/constants"
	apperr "github.com/iceymoss/seedgen/pkg/errors"
	"github.com/iceymoss/seedgen/pkg/xerr"
)

type Server struct {
	engine    *gin.Engine
	scheduler *engine.Scheduler
	svcCtx    *svc.ServiceContext
	http      *http.Server
}

// analyzeRequest POST /api/analyze 请求体
type analyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

// outcomeResponse 单个 URL 的处理结果
type outcomeResponse struct {
	URL        string   `json:"url"`
	Title      string   `json:"title,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Status     string   `json:"status"`
	Stage      string   `json:"stage,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Code       int      `json:"code,omitempty"`
	DurationMs int64    `json:"duration_ms"`
}

func NewServer(svcCtx *svc.ServiceContext) *Server {
	scheduler := engine.NewScheduler(svcCtx)

	tasks.ApplyAutoJobs(scheduler)

	// 注册配置文件里的任务
	if svcCtx != nil && svcCtx.Config != nil {
		for _, job := range svcCtx.Config.Jobs {
			if !job.Enable {
				continue
			}
			err := scheduler.AddJob(job.Cron, job.Name, job.Name, job.Params, string(constants.TaskTypeYAML))
			if err != nil {
				log.Printf("⚠️ Failed to schedule %s: %v", job.Name, err)
			} else {
				log.Printf("✅ Job scheduled: %s [%s]", job.Name, job.Cron)
			}
		}
	}

	s := &Server{scheduler: scheduler, svcCtx: svcCtx}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/tasks", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"data": s.scheduler.Stats.GetAll(), "registered": tasks.Names()})
		})
		api.POST("/tasks/:name/run", s.runTask)
		api.POST("/analyze", s.analyze)
		api.GET("/outcomes", s.outcomes)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API not found"})
	})
	return router
}

func (s *Server) runTask(c *gin.Context) {
	// 请求体可选，作为任务参数覆盖
	var params map[string]any
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": xerr.REQUEST_PARAM_ERROR, "error": err.Error()})
			return
		}
	}
	if params == nil {
		params = map[string]any{}
	}
	if _, ok := params["trigger"]; !ok {
		params["trigger"] = string(constants.TaskTypeAPI)
	}

	if err := s.scheduler.ManualRun(c.Param("name"), params); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, engine.ErrJobRunning) {
			code = http.StatusConflict
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Triggered"})
}

// analyze 同步处理单个 URL
func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": xerr.REQUEST_PARAM_ERROR, "error": "url is required"})
		return
	}
	if s.svcCtx == nil || s.svcCtx.Pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline not initialized"})
		return
	}

	o := s.svcCtx.Pipeline.Process(c.Request.Context(), req.URL)

	code := http.StatusOK
	switch o.Status {
	case pipeline.StatusSaved:
		code = http.StatusCreated
	case pipeline.StatusFailed:
		code = http.StatusBadGateway
	}
	c.JSON(code, toResponse(o))
}

func (s *Server) outcomes(c *gin.Context) {
	if s.svcCtx == nil || s.svcCtx.Ledger == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ledger disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := s.svcCtx.Ledger.RecentOutcomes(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func toResponse(o pipeline.Outcome) outcomeResponse {
	code := 0
	if o.Err != nil {
		code = apperr.CodeOf(o.Err)
	}
	return outcomeResponse{
		URL:        o.URL,
		Title:      o.Title,
		Tags:       o.Tags,
		Status:     string(o.Status),
		Stage:      string(o.Stage),
		Reason:     o.Reason,
		Code:       code,
		DurationMs: o.Duration.Milliseconds(),
	}
}

// Run 启动调度器和 web 服务，阻塞直到 ctx 结束
func (s *Server) Run(ctx context.Context, addr string) error {
	s.scheduler.Start()
	s.http = &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		<-s.scheduler.Stop().Done()
		return err
	case <-ctx.Done():
	}

	log.Printf("🛑 Shutting down ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.http.Shutdown(shutdownCtx)
	<-s.scheduler.Stop().Done()
	return err
}
