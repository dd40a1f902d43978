package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/kalambet/banglabot/internal/catalog"
	"github.com/kalambet/banglabot/internal/config"
	"github.com/kalambet/banglabot/internal/history"
	"github.com/kalambet/banglabot/internal/intent"
	"github.com/kalambet/banglabot/internal/pipeline"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- classify ---

var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Classify text against the intent catalog (offline)",
	Long: `Classify text against the intent catalog without starting the server
or calling a fallback backend.

Examples:
  banglabot classify "hello there"
  banglabot classify --debug "ধন্যবাদ"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")

		cfg, err := config.LoadPartial()
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if debug {
			level = "debug"
		}

		_, cls, err := loadClassifier(commandContext(cmd), cfg, newLogger(level))
		if err != nil {
			return err
		}

		writeClassification(os.Stdout, cls, strings.Join(args, " "))
		return nil
	},
}

func writeClassification(w io.Writer, cls *intent.Classifier, text string) {
	m := cls.Score(text)
	if m.Entry >= 0 && m.Score >= cls.MinScore() {
		fmt.Fprintf(w, "%s (score %d)\n", m.Tag, m.Score)
		return
	}
	fmt.Fprintf(w, "no match (best score %d, need %d)\n", m.Score, cls.MinScore())
}

func init() {
	classifyCmd.Flags().Bool("debug", false, "log scoring details")
}

// --- intents ---

var intentsCmd = &cobra.Command{
	Use:   "intents",
	Short: "List the intents in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := config.LoadPartial()
		if err != nil {
			return err
		}
		c, err := catalog.Load(commandContext(cmd), cfg.Catalog.Path)
		if err != nil {
			return err
		}

		intents := filterIntents(c.Intents(), filter)
		if asJSON {
			return printJSON(os.Stdout, intents)
		}
		if len(intents) == 0 {
			printWarning("no intents match %q", filter)
			return nil
		}
		for _, in := range intents {
			fmt.Printf("  %s  %d patterns, %d responses\n", bold(in.Tag), len(in.Patterns), len(in.Responses))
		}
		return nil
	},
}

// intentSource lets fuzzy match against intent tags.
type intentSource []catalog.Intent

func (s intentSource) String(i int) string { return s[i].Tag }
func (s intentSource) Len() int            { return len(s) }

// filterIntents returns intents whose tag fuzzily matches pattern, best
// match first. An empty pattern keeps catalog order.
func filterIntents(intents []catalog.Intent, pattern string) []catalog.Intent {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return intents
	}
	matches := fuzzy.FindFrom(pattern, intentSource(intents))
	out := make([]catalog.Intent, 0, len(matches))
	for _, m := range matches {
		out = append(out, intents[m.Index])
	}
	return out
}

func init() {
	intentsCmd.Flags().String("filter", "", "fuzzy filter on intent tags")
	intentsCmd.Flags().Bool("json", false, "print full intents as JSON")
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat <text>",
	Short: "Send a message to the running server",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		reply, err := sendChat(commandContext(cmd), client, strings.Join(args, " "))
		if err != nil {
			return err
		}

		fmt.Println(reply.Text)
		if reply.Tag != "" {
			printStatus("Source", "%s (%s)", reply.Source, reply.Tag)
		} else {
			printStatus("Source", "%s", reply.Source)
		}
		return nil
	},
}

func sendChat(ctx context.Context, client *apiClient, msg string) (pipeline.Reply, error) {
	resp, err := client.post(ctx, "/v1/chat", map[string]string{"message": msg})
	if err != nil {
		return pipeline.Reply{}, err
	}
	var reply pipeline.Reply
	if err := decodeJSON(resp, &reply); err != nil {
		return pipeline.Reply{}, err
	}
	return reply, nil
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversation turns from the running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		turns, err := fetchHistory(commandContext(cmd), client, limit)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(os.Stdout, turns)
		}
		if len(turns) == 0 {
			printStep("No conversation yet.")
			return nil
		}
		for _, t := range turns {
			fmt.Printf("%s  %s: %s\n", t.At.Local().Format("15:04:05"), bold(string(t.Role)), t.Text)
		}
		return nil
	},
}

func fetchHistory(ctx context.Context, client *apiClient, limit int) ([]history.Turn, error) {
	resp, err := client.get(ctx, fmt.Sprintf("/history?limit=%d", limit))
	if err != nil {
		return nil, err
	}
	var turns []history.Turn
	if err := decodeJSON(resp, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of turns to show")
	historyCmd.Flags().Bool("json", false, "print turns as JSON")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadPartial()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", bold(k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: "Set a configuration value. Valid keys:\n  " + strings.Join(config.ValidKeys(), "\n  ") +
		"\n\nAPI keys and the server token are written to the secrets file, not the config file.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		if strings.Contains(key, "api_key") || strings.Contains(key, "token") {
			printSuccess("Set %s", key)
		} else {
			printSuccess("Set %s = %s", key, value)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
