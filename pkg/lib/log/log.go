// Package log 提供 go-bgpd 统一日志接口
//
// 包级变量在 init 阶段创建 logger，此时环境变量和输出目标可能尚未就绪，
// 因此 Logger 返回 LazyLogger：每次调用时才解析子系统 logger。
//
// 使用方式：
//
//	var logger = log.Logger("core/peerindex")
//
//	logger.Info("peer registered", "id", id)
package log

import (
	"context"
	"io"
	"log/slog"

	"github.com/dep2p/go-bgpd/internal/util/logger"
)

// 日志级别常量
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
type LazyLogger struct {
	subsystem string
}

// Logger 返回子系统的 LazyLogger
func Logger(subsystem string) *LazyLogger {
	return &LazyLogger{subsystem: subsystem}
}

func (l *LazyLogger) resolve() *slog.Logger {
	return logger.Logger(l.subsystem)
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) {
	l.resolve().Debug(msg, args...)
}

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) {
	l.resolve().Info(msg, args...)
}

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) {
	l.resolve().Warn(msg, args...)
}

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) {
	l.resolve().Error(msg, args...)
}

// DebugContext 带 context 的 Debug 日志
func (l *LazyLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.resolve().DebugContext(ctx, msg, args...)
}

// Enabled 检查级别是否启用
//
// 热路径上用于避免构造昂贵的日志参数。
func (l *LazyLogger) Enabled(level slog.Level) bool {
	return l.resolve().Enabled(context.Background(), level)
}

// With 返回带额外属性的 logger
func (l *LazyLogger) With(args ...any) *slog.Logger {
	return l.resolve().With(args...)
}

// ============================================================================
//                              全局设置
// ============================================================================

// SetOutput 设置日志输出目标
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetLevel 设置所有子系统的日志级别
func SetLevel(level slog.Level) {
	logger.SetGlobalLevel(level)
}
