// Package models 用ONNX模型实现命名实体识别和上下文重排序
package models

import (
	"fmt"
	"runtime"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
)

type SessionConfig struct {
	// onnxruntime动态库路径，为空时使用系统默认位置
	OnnxLibraryPath string

	// 每个推理调用的线程数，为0时使用CPU核数
	NumThreads int
}

func newSession(config SessionConfig) (*hugot.Session, error) {
	numThreads := config.NumThreads
	if numThreads == 0 {
		numThreads = runtime.NumCPU()
	}
	sessionOpts := []options.WithOption{
		options.WithIntraOpNumThreads(numThreads),
	}
	if config.OnnxLibraryPath != "" {
		sessionOpts = append(sessionOpts, options.WithOnnxLibraryPath(config.OnnxLibraryPath))
	}
	session, err := hugot.NewORTSession(sessionOpts...)
	if err != nil {
		return nil, fmt.Errorf("create ORT session: %w", err)
	}
	return session, nil
}
