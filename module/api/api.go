package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/config"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/kweaver-ai/kweaver-go-lib/rest"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// Analyzer 执行周期性故障分析。
type Analyzer interface {
	Analyze(ctx context.Context, query domain.RecurrenceQuery) (*domain.RecurrenceReport, error)
}

// Server 提供周期性故障查询、健康检查与指标接口。
type Server struct {
	cfg        config.APIConfig
	analyzer   Analyzer
	validate   *validator.Validate
	router     *gin.Engine
	httpServer *http.Server
}

func New(cfg config.APIConfig, analyzer Analyzer, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		validate: newValidator(),
	}
	s.router = s.routes(gatherer)
	return s
}

func (s *Server) routes(gatherer prometheus.Gatherer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), accessLog())

	// 第一层：/api/itops-recurring-incident
	api := engine.Group("/api/itops-recurring-incident")

	// 第二层：v1 版本
	v1 := api.Group("/v1")
	{
		v1.POST("/recurring-incidents", s.analyze)
		v1.GET("/health", s.health)
	}

	if gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return engine
}

// Start 启动 HTTP Server，ctx 取消后优雅退出。
func (s *Server) Start(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv
	log.Infof("HTTP 服务监听 %s", httpSrv.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Stop 优雅关闭 HTTP 服务。
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler 返回路由，供测试与嵌入使用。
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) analyze(c *gin.Context) {
	ctx := rest.GetLanguageCtx(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	// 空请求体按全部默认值查询
	var query domain.RecurrenceQuery
	if err := c.ShouldBindJSON(&query); err != nil && !errors.Is(err, io.EOF) {
		httpErr := NewRestHTTPError(ctx, InvalidParameter).WithErrorDetails("请求体格式错误: " + err.Error())
		rest.ReplyError(c, httpErr)
		return
	}
	if err := s.validate.Struct(query); err != nil {
		log.Warnf("周期性故障查询参数校验失败: %v", err)
		rest.ReplyError(c, HandleValidateError(ctx, err))
		return
	}

	report, err := s.analyzer.Analyze(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			rest.ReplyError(c, NewRestHTTPError(ctx, InvalidParameter).WithErrorDetails(err.Error()))
			return
		}
		log.Errorf("周期性故障分析失败: %v", err)
		rest.ReplyError(c, NewRestHTTPError(ctx, InternalError).WithErrorDetails(err.Error()))
		return
	}
	rest.ReplyOK(c, http.StatusOK, report)
}

func (s *Server) health(c *gin.Context) {
	rest.ReplyOK(c, http.StatusOK, gin.H{"status": "ok"})
}

// newValidator 错误信息中使用 json 字段名。
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// accessLog 记录请求耗时。
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugw("HTTP",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
