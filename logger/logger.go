package logger

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

/* ========================================================================
 * Logger - 统一日志组件
 * ========================================================================
 * 职责: 提供结构化日志能力，支持 JSON / Console 格式
 * 技术: Uber Zap
 * ======================================================================== */

// Config Logger 配置
type Config struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	Output string `yaml:"output"` // 空或 "stdout" 输出到标准输出，否则视为文件路径

	// 文件输出时的滚动策略, 零值走 lumberjack 默认
	MaxSizeMB  int `yaml:"max_size_mb"`  // 单文件上限 (MB)
	MaxBackups int `yaml:"max_backups"`  // 保留旧文件数
	MaxAgeDays int `yaml:"max_age_days"` // 保留天数
}

// Logger 封装 Zap Logger
type Logger struct {
	*zap.Logger
}

// ValidateConfig 校验日志配置
func ValidateConfig(cfg Config) error {
	if cfg.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}
	switch cfg.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format %q: expected json or console", cfg.Format)
	}
	return nil
}

// NewLogger 初始化 Logger
func NewLogger(cfg Config) *Logger {
	// 解析日志级别，非法值回退到 info
	level := zap.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level = zap.InfoLevel
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	// 根据格式选择编码器
	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	// 配置输出：stdout 或带滚动的文件
	writer := zapcore.AddSync(os.Stdout)
	if cfg.Output != "" && cfg.Output != "stdout" {
		writer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		})
	}

	core := zapcore.NewCore(
		encoder,
		writer,
		level,
	)

	logger := zap.New(core, zap.AddCaller())
	return &Logger{Logger: logger}
}

// NewNop 返回不输出任何内容的 Logger（测试/缺省场景）
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// WithContext 从 Context 提取请求信息并注入 Logger
func (l *Logger) WithContext(ctx context.Context) *zap.Logger {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok && rid != "" {
		return l.Logger.With(zap.String("request_id", rid))
	}
	return l.Logger
}

type requestIDKey struct{}

// WithRequestID 将请求 ID 注入 context，供 WithContext 提取
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}
