package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"job-applier-go/internal/bootstrap"
	"job-applier-go/internal/jobsearch"
	"job-applier-go/internal/logger"
	"job-applier-go/internal/types"
)

// runSearch profilecli search -k "go developer" [--xlsx jobs.xlsx]
func runSearch(args []string) error {
	fs, configPath, verbose := newFlagSet("search")
	keyword := fs.StringP("keyword", "k", "", "搜索关键词 (必填)")
	location := fs.StringP("location", "l", "", "地点，默认取配置")
	remote := fs.Bool("remote", false, "只看远程职位")
	jobType := fs.String("job-type", "", "full-time | part-time | contract | internship")
	maxResults := fs.IntP("max", "n", 20, "最多返回条数")
	daysOld := fs.Int("days", 30, "发布时间不早于多少天前")
	additional := fs.StringSlice("also", nil, "附加关键词，最多取前两个")
	xlsxPath := fs.String("xlsx", "", "导出为 xlsx 文件")
	_ = fs.Parse(args)

	if strings.TrimSpace(*keyword) == "" {
		return jobsearch.ErrKeywordRequired
	}
	cfg, err := loadConfig(*configPath, *verbose)
	if err != nil {
		return err
	}

	svc, err := bootstrap.JobSearch(cfg, nil, bootstrap.Loggers{Std: logger.Std, Service: &logger.Logger})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	jobs, err := svc.Search(ctx, types.JobSearchRequest{
		Keyword:            *keyword,
		Location:           *location,
		Remote:             *remote,
		JobType:            *jobType,
		MaxResults:         *maxResults,
		DaysOld:            *daysOld,
		AdditionalKeywords: *additional,
	})
	if err != nil {
		return err
	}

	if *xlsxPath == "" {
		out, err := json.MarshalIndent(jobs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	data, err := jobsearch.ExportXLSX(jobs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*xlsxPath, data, 0644); err != nil {
		return fmt.Errorf("保存到文件失败: %w", err)
	}
	fmt.Fprintf(os.Stderr, "%d 条职位已导出到: %s\n", len(jobs), *xlsxPath)
	return nil
}
