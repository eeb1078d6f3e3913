// Package main 是应用程序的入口点。
package main

import (
	"os"

	"interviewiq-go/internal/config"
	"interviewiq-go/pkg/log"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "interviewiq",
	Short: "Interview preparation chatbot server",
	Long: `interviewiq classifies interview-preparation messages into general, technical,
behavioral and hr topics and answers with canned guidance.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "配置文件路径")
	rootCmd.AddCommand(serveCmd, migrateCmd, classifyCmd)
}

// bootstrap 加载配置并初始化日志记录器。
func bootstrap() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	config.Conf = cfg
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	return cfg, nil
}
