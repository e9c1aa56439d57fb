package main

import (
	"fmt"
	"strings"

	"devfestsched/assistant"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask a question about the DevFest schedules",
	Long: `Answers a question with Gemini, grounded in the scraped schedule of every
event the question names. Requires GEMINI_API_KEY (or llm.api_key).

Examples:
  devfest ask "What web development talks are available at DevFest Lagos?"
  devfest ask Are there any workshops in Nairobi?`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	reg, err := newRegistry(cfg, logger)
	if err != nil {
		return err
	}
	gen, err := assistant.NewGeminiGenerator(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := assistant.New(reg, gen, logger).AskStream(ctx, strings.Join(args, " "), out); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return nil
}
