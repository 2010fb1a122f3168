package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"job-applier-go/internal/logger"
	"job-applier-go/internal/storage"
)

// runWatch 消费档案事件队列，直到收到 Ctrl-C
func runWatch(args []string) error {
	fs, configPath, verbose := newFlagSet("watch")
	queue := fs.String("queue", "", "队列名，默认取 rabbitmq.profile_events_queue")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath, *verbose)
	if err != nil {
		return err
	}
	if cfg.RabbitMQ.URL == "" {
		return fmt.Errorf("未配置 rabbitmq.url")
	}
	if *queue != "" {
		cfg.RabbitMQ.ProfileEventsQueue = *queue
	}
	if cfg.RabbitMQ.ProfileEventsQueue == "" {
		return fmt.Errorf("未配置档案事件队列")
	}

	mq, err := storage.NewRabbitMQ(&cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer mq.Close()
	if err := mq.SetupProfileTopology(); err != nil {
		return err
	}

	prefetch := cfg.RabbitMQ.PrefetchCount
	if prefetch <= 0 {
		prefetch = 10
	}
	stop, err := mq.StartConsumer(cfg.RabbitMQ.ProfileEventsQueue, prefetch, func(body []byte) bool {
		var msg storage.ProfileExtractedMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			// 无法解析的消息直接确认，避免反复投递
			logger.Warn().Err(err).Str("body", string(body)).Msg("跳过无法解析的事件")
			return true
		}
		fmt.Printf("%s  %-8s %-36s %s <%s> exp=%d edu=%d skills=%d\n",
			msg.ExtractedAt.Format(time.RFC3339), msg.Source, msg.RecordID,
			msg.CandidateName, msg.CandidateEmail,
			msg.ExperienceCount, msg.EducationCount, msg.SkillCount)
		return true
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "正在监听队列 %s，Ctrl-C 退出\n", cfg.RabbitMQ.ProfileEventsQueue)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	close(stop)
	return nil
}

// runHistory 打印最近的抽取记录
func runHistory(args []string) error {
	fs, configPath, verbose := newFlagSet("history")
	limit := fs.IntP("limit", "n", 20, "条数")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath, *verbose)
	if err != nil {
		return err
	}
	if cfg.MySQL.Host == "" {
		return fmt.Errorf("未配置 mysql.host")
	}
	db, err := storage.NewMySQL(&cfg.MySQL)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	records, err := db.RecentExtractions(ctx, *limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tSOURCE\tRECORD\tCANDIDATE\tFILE\tCACHE")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Source, r.RecordID,
			r.CandidateName, r.OriginalFilename, r.CacheHit)
	}
	return w.Flush()
}
