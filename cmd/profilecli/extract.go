package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"job-applier-go/internal/bootstrap"
	"job-applier-go/internal/logger"
	"job-applier-go/internal/storage"
)

// runExtract profilecli extract [-o out.json] [--persist] <file>
func runExtract(args []string) error {
	fs, configPath, verbose := newFlagSet("extract")
	output := fs.StringP("output", "o", "", "把 JSON 写入文件而不是 stdout")
	persist := fs.Bool("persist", false, "使用配置中的存储后端 (缓存、归档、抽取记录)")
	timeout := fs.Duration("timeout", 3*time.Minute, "整体超时")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("需要且只需要一个简历文件路径")
	}
	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("无法获取文件的绝对路径: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}

	cfg, err := loadConfig(*configPath, *verbose)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var store *storage.Storage
	if *persist {
		store, err = storage.NewStorage(ctx, cfg, storage.WithLogger(logger.Std("storage")))
		if err != nil {
			logger.Warn().Err(err).Msg("部分存储后端不可用")
		}
		defer store.Close()
	}

	logs := bootstrap.Loggers{Std: logger.Std, Service: &logger.Logger}
	svc, err := bootstrap.ProfileService(ctx, cfg, bootstrap.OpenAIModels(cfg, logs), store, logs)
	if err != nil {
		return err
	}

	start := time.Now()
	profile, err := svc.ExtractFromFile(ctx, filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("抽取失败: %w", err)
	}
	logger.Info().Dur("elapsed", time.Since(start)).Str("file", path).Msg("抽取完成")

	out, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return err
	}
	if *output == "" {
		fmt.Println(string(out))
		return nil
	}
	if err := os.WriteFile(*output, out, 0644); err != nil {
		return fmt.Errorf("保存到文件失败: %w", err)
	}
	fmt.Fprintf(os.Stderr, "档案已保存到: %s\n", *output)
	return nil
}
