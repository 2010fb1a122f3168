package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"job-applier-go/internal/config"
	"job-applier-go/internal/logger"
)

const usage = `用法: profilecli <command> [flags]

命令:
  extract   从本地简历文件抽取结构化档案并输出 JSON
  search    按关键词搜索职位，可导出为 xlsx
  watch     消费 profile.extracted 事件并逐条打印
  history   列出最近的抽取记录 (需要 MySQL)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	command, args := os.Args[1], os.Args[2:]
	var err error
	switch command {
	case "extract":
		err = runExtract(args)
	case "search":
		err = runSearch(args)
	case "watch":
		err = runWatch(args)
	case "history":
		err = runHistory(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "错误: 未知命令 '%s'\n\n%s", command, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// newFlagSet 每个子命令共用的 -c 和 -v
func newFlagSet(name string) (*pflag.FlagSet, *string, *bool) {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	configPath := fs.StringP("config", "c", "", "配置文件路径")
	verbose := fs.BoolP("verbose", "v", false, "输出调试日志到 stderr")
	return fs, configPath, verbose
}

// loadConfig 加载配置并初始化日志，非 verbose 时只输出警告以上
func loadConfig(path string, verbose bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	if err := logger.Init(logger.Config{Level: level, Format: "pretty", TimeFormat: "15:04:05", Output: os.Stderr}); err != nil {
		log.Printf("初始化日志失败: %v", err)
	}
	return cfg, nil
}
