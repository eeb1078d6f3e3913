package main

import (
	"encoding/json"
	"math/rand/v2"
	"strings"

	"interviewiq-go/internal/classifier"
	"interviewiq-go/internal/config"

	"github.com/spf13/cobra"
)

var (
	seed    uint64
	useSeed bool
)

func init() {
	classifyCmd.Flags().Uint64Var(&seed, "seed", 0, "固定随机种子，使回复可复现")
}

var classifyCmd = &cobra.Command{
	Use:   "classify <message>",
	Short: "Classify a message offline and print the result as JSON",
	Long: `Run the classifier against a single message without starting the server.
The classifier section of the config file is used when the file exists.

Examples:
  interviewiq classify "how do I prepare for a coding interview"
  interviewiq classify --seed 42 "tell me about a conflict in your team"`,
	Args: cobra.MinimumNArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		useSeed = cmd.Flags().Changed("seed")
	},
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg := classifier.DefaultConfig()
	if loaded, err := config.Load(configPath); err == nil {
		cfg = loaded.Classifier
	}

	var opts []classifier.Option
	if useSeed {
		opts = append(opts, classifier.WithRandomSource(rand.New(rand.NewPCG(seed, seed))))
	}
	result := classifier.New(cfg, opts...).Classify(strings.Join(args, " "))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
