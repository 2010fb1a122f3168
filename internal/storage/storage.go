package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"job-applier-go/internal/config"
)

// Storage 聚合可选的存储后端，未配置或初始化失败的后端为 nil
type Storage struct {
	MinIO    *MinIO
	RabbitMQ *RabbitMQ
	MySQL    *MySQL
	Redis    *Redis
}

// Option Storage 初始化选项
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger 设置初始化过程使用的日志
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewStorage 依次初始化各后端
// 单个后端失败只记录日志，返回的 error 汇总所有失败原因，Storage 本身始终可用
func NewStorage(ctx context.Context, cfg *config.Config, opts ...Option) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	o := &options{logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger

	s := &Storage{}
	var initErrors []error
	var err error

	if cfg.MinIO.Endpoint != "" {
		s.MinIO, err = NewMinIO(&cfg.MinIO, logger)
		if err != nil {
			logger.Printf("警告: 初始化MinIO失败: %v", err)
			initErrors = append(initErrors, fmt.Errorf("minio: %w", err))
			s.MinIO = nil
		}
	}

	if cfg.RabbitMQ.URL != "" {
		s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err == nil {
			err = s.RabbitMQ.SetupProfileTopology()
			if err != nil {
				s.RabbitMQ.Close()
			}
		}
		if err != nil {
			logger.Printf("警告: 初始化RabbitMQ失败: %v", err)
			initErrors = append(initErrors, fmt.Errorf("rabbitmq: %w", err))
			s.RabbitMQ = nil
		}
	}

	if cfg.MySQL.Host != "" {
		s.MySQL, err = NewMySQL(&cfg.MySQL)
		if err != nil {
			logger.Printf("警告: 初始化MySQL失败: %v", err)
			initErrors = append(initErrors, fmt.Errorf("mysql: %w", err))
			s.MySQL = nil
		}
	}

	if cfg.Redis.Address != "" {
		s.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			logger.Printf("警告: 初始化Redis失败: %v", err)
			initErrors = append(initErrors, fmt.Errorf("redis: %w", err))
			s.Redis = nil
		}
	}

	return s, errors.Join(initErrors...)
}

// Status 各后端的可用状态: ok | unavailable | disabled
func (s *Storage) Status(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := func(enabled bool, ping func(context.Context) error) string {
		if !enabled {
			return "disabled"
		}
		if err := ping(ctx); err != nil {
			return "unavailable"
		}
		return "ok"
	}

	result := map[string]string{
		"redis": "disabled", "mysql": "disabled", "minio": "disabled", "rabbitmq": "disabled",
	}
	if s == nil {
		return result
	}
	if s.Redis != nil {
		result["redis"] = status(true, s.Redis.Ping)
	}
	if s.MySQL != nil {
		result["mysql"] = status(true, s.MySQL.Ping)
	}
	if s.MinIO != nil {
		result["minio"] = status(true, s.MinIO.Ping)
	}
	if s.RabbitMQ != nil {
		result["rabbitmq"] = status(true, func(context.Context) error {
			if s.RabbitMQ.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		})
	}
	return result
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s == nil {
		return
	}
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Printf("关闭RabbitMQ连接失败: %v", err)
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			log.Printf("关闭MySQL连接失败: %v", err)
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Printf("关闭Redis连接失败: %v", err)
		}
	}
}
