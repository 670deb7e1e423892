package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	findTopK     int
	findFormat   string
	findProvider string
	findModel    string
)

var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Search installed skills for a tool matching a natural-language query",
	Args:  cobra.ExactArgs(1),
	RunE:  findRunE,
}

func init() {
	findCmd.Flags().IntVar(&findTopK, "top-k", 5, "maximum results to return")
	findCmd.Flags().StringVar(&findProvider, "provider", "", "embedding provider override (also settable via SKILL_ENGINE_EMBEDDING_PROVIDER)")
	findCmd.Flags().StringVar(&findModel, "model", "", "embedding model override (also settable via SKILL_ENGINE_EMBEDDING_MODEL)")
	findCmd.Flags().StringVar(&findFormat, "format", "rich", "output format: rich, compact, or json")
}

func findRunE(cmd *cobra.Command, args []string) error {
	if findProvider != "" {
		os.Setenv("SKILL_ENGINE_EMBEDDING_PROVIDER", findProvider)
	}
	if findModel != "" {
		os.Setenv("SKILL_ENGINE_EMBEDDING_MODEL", findModel)
	}

	_, srv, err := newBridgeServer()
	if err != nil {
		return err
	}

	result, err := callBridgeTool(srv, "search_skills", map[string]any{
		"query": args[0],
		"top_k": findTopK,
	})
	if err != nil {
		return invocationErrorf("%s", err)
	}

	text := resultText(result)
	switch findFormat {
	case "json", "":
		fmt.Fprintln(cmd.OutOrStdout(), maskSecrets(text))
	case "compact", "rich":
		printFindResults(cmd, text)
	default:
		return invocationErrorf("InvalidFormat: %q (want rich, compact, or json)", findFormat)
	}
	return nil
}

// printFindResults re-renders search_skills' JSON payload as one line per
// hit for the "rich"/"compact" formats; "json" prints the raw payload as-is.
func printFindResults(cmd *cobra.Command, text string) {
	var payload struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), maskSecrets(text))
		return
	}
	out := cmd.OutOrStdout()
	for _, hit := range payload.Results {
		line := fmt.Sprintf("%v@%v:%v  [%v]  %v",
			hit["skill"], hit["instance"], hit["tool"], hit["relevance"], hit["description"])
		fmt.Fprintln(out, maskSecrets(line))
	}
}
