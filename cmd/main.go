package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"job-applier-go/internal/api/router"
	"job-applier-go/internal/bootstrap"
	"job-applier-go/internal/config"
	"job-applier-go/internal/logger"
	"job-applier-go/internal/outbox"
	"job-applier-go/internal/storage"
	"job-applier-go/internal/tracing"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
		FilePath:     cfg.Logger.FilePath,
		Service:      cfg.Server.ServiceName,
	}); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing := func(context.Context) error { return nil }
	if cfg.Tracing.Enabled {
		shutdownTracing, err = tracing.InitProvider(ctx, tracing.ProviderConfig{
			ServiceName:  cfg.Server.ServiceName,
			OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
			SampleRatio:  cfg.Tracing.SampleRatio,
		})
		if err != nil {
			glog.Warnf("初始化链路追踪失败，继续运行: %v", err)
		}
	}

	// 存储后端都是可选的，失败只降级
	storageManager, err := storage.NewStorage(ctx, cfg, storage.WithLogger(logger.Std("storage")))
	if err != nil {
		glog.Warnf("部分存储后端不可用: %v", err)
	}
	defer storageManager.Close()

	var messageRelay *outbox.MessageRelay
	if storageManager.MySQL != nil && storageManager.RabbitMQ != nil {
		messageRelay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ,
			outbox.WithPollingInterval(config.GetDuration(cfg.RabbitMQ.RelayInterval, 5*time.Second)),
			outbox.WithBatchSize(cfg.RabbitMQ.RelayBatchSize),
			outbox.WithMaxRetries(cfg.RabbitMQ.MaxRetries),
			outbox.WithLogger(logger.Std("outbox")))
		messageRelay.Start()
		glog.Info("消息中继服务已启动")
	}

	logs := bootstrap.Loggers{Std: logger.Std, Service: &logger.Logger}
	handlers, err := bootstrap.Handlers(ctx, cfg, bootstrap.OpenAIModels(cfg, logs), storageManager, logs)
	if err != nil {
		glog.Fatalf("初始化处理器失败: %v", err)
	}

	maxBody := cfg.Extraction.MaxUploadSizeMB
	if maxBody <= 0 {
		maxBody = 10
	}
	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		// multipart 开销，多留 1MB 给表单头
		server.WithMaxRequestBodySize((maxBody+1)<<20),
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	router.RegisterRoutes(h, handlers, cfg.Server.APIKeys)
	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	if messageRelay != nil {
		messageRelay.Stop()
		glog.Info("消息中继服务已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Errorf("关闭链路追踪失败: %v", err)
	}
	glog.Info("优雅退出完成")
}
