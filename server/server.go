// Package server 通过HTTP提供实体链接服务
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/huichen/huoyan/types"
)

// 引擎对外提供的链接接口
type Linker interface {
	Link(ctx context.Context, docs []string) (types.LinkResponse, error)
	LinkEntities(ctx context.Context, mentions []types.Mention, contextTokens []string) ([][]string, error)
}

type mentionsResponse struct {
	EntityIds [][]string `json:"entity_ids"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// 创建路由：POST /link、GET /healthz，metrics 不为空时还有 GET /metrics
func NewRouter(linker Linker, metrics http.Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
	router.POST("/link", linkHandler(linker, logger))
	return router
}

func linkHandler(linker Linker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request types.LinkRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Code: "bad_request", Error: err.Error()})
			return
		}

		// 给定提及时跳过分块和识别
		if len(request.Mentions) > 0 {
			entityIds, err := linker.LinkEntities(c.Request.Context(), request.Mentions, request.ContextTokens)
			if err != nil {
				writeError(c, logger, err)
				return
			}
			c.JSON(http.StatusOK, mentionsResponse{EntityIds: entityIds})
			return
		}
		if len(request.Docs) == 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Code: "bad_request", Error: "docs or mentions is required"})
			return
		}

		response, err := linker.Link(c.Request.Context(), request.Docs)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, response)
	}
}

func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	code := "internal"
	var e *types.Error
	if errors.As(err, &e) {
		code = e.Code.String()
		switch e.Code {
		case types.ErrCodeCollaborator:
			status = http.StatusBadGateway
		case types.ErrCodeNotInitialized:
			status = http.StatusServiceUnavailable
		}
	}
	logger.Error("link failed", zap.Error(err), zap.String("code", code))
	c.JSON(status, errorResponse{Code: code, Error: err.Error()})
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// 启动HTTP服务，ctx 结束时优雅关闭
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{Addr: addr, Handler: handler}
	errChannel := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errChannel <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChannel:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
