package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/lango/internal/config"
)

// --- bootstrap ---

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap <language>",
	Short: "Set up a new language workspace",
	Long: `Set up a new language workspace.

Examples:
  lango bootstrap korean
  lango bootstrap "brazilian portuguese"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		language := args[0]

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/languages", map[string]string{"language": language})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Bootstrapped %s", result["language"])
		printStep("Start chatting with: lango chat %s <message>", result["language"])
		return nil
	},
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat <language> <message...>",
	Short: "Send a message to the tutor",
	Long: `Send a message to the tutor for a language and print its reply.

The study files for the language are updated in the background after
each message.

Examples:
  lango chat korean "how do I order coffee?"
  lango chat german was bedeutet "doch"?`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		language := args[0]
		message := strings.Join(args[1:], " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/chat", map[string]string{
			"language": language,
			"message":  message,
		})
		if err != nil {
			return err
		}

		var result struct {
			Reply string `json:"reply"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Reply)
		return nil
	},
}

// --- languages ---

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List bootstrapped languages",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/languages")
		if err != nil {
			return err
		}

		var result struct {
			Languages []string `json:"languages"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Languages) == 0 {
			fmt.Println("No languages yet. Run: lango bootstrap <language>")
			return nil
		}
		for _, lang := range result.Languages {
			fmt.Println(lang)
		}
		return nil
	},
}

// --- delete ---

var deleteCmd = &cobra.Command{
	Use:   "delete <language>",
	Short: "Delete a language workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		language := args[0]

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			printWarning("This deletes the %s workspace and all its study files. Use --yes to proceed.", language)
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/languages/"+language)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}

		printSuccess("Deleted %s", language)
		return nil
	},
}

func init() {
	deleteCmd.Flags().Bool("yes", false, "confirm deletion")
}

// --- vocab / grammar ---

var vocabCmd = &cobra.Command{
	Use:   "vocab <language>",
	Short: "Show the vocabulary study file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showArtifact(cmd, args[0], "vocabulary")
	},
}

var grammarCmd = &cobra.Command{
	Use:   "grammar <language>",
	Short: "Show the grammar study file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showArtifact(cmd, args[0], "grammar")
	},
}

func showArtifact(cmd *cobra.Command, language, kind string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	resp, err := client.get(cmd.Context(), fmt.Sprintf("/languages/%s/%s", language, kind))
	if err != nil {
		return err
	}

	var doc any
	if err := decodeJSON(resp, &doc); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// --- due ---

var dueCmd = &cobra.Command{
	Use:   "due <language>",
	Short: "Show vocabulary due for review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/languages/%s/due", args[0]))
		if err != nil {
			return err
		}

		var result struct {
			Words []struct {
				Word        string `json:"word"`
				Interval    int    `json:"interval"`
				Repetitions int    `json:"repetitions"`
				NextReview  string `json:"next_review"`
			} `json:"words"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Words) == 0 {
			fmt.Println("Nothing due. Keep chatting!")
			return nil
		}
		for _, w := range result.Words {
			fmt.Printf("%s  %s (interval %dd, seen %dx)\n",
				colorize(colorBold, w.Word),
				w.NextReview,
				w.Interval,
				w.Repetitions,
			)
		}
		return nil
	},
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history <language>",
	Short: "Show the most recent tutor conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/languages/%s/history", args[0]))
		if err != nil {
			return err
		}

		var result struct {
			Turns []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"turns"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Turns) == 0 {
			fmt.Println("No conversation yet.")
			return nil
		}
		for _, turn := range result.Turns {
			printTurn(turn.Role, turn.Content)
		}
		return nil
	},
}

// --- activity ---

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show recent exchanges across all languages",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/activity?limit=%d", limit))
		if err != nil {
			return err
		}

		var result struct {
			Exchanges []struct {
				ID             string    `json:"id"`
				CreatedAt      time.Time `json:"created_at"`
				Language       string    `json:"language"`
				Message        string    `json:"message"`
				ResponderMS    int64     `json:"responder_ms"`
				TrackerOutcome string    `json:"tracker_outcome"`
			} `json:"exchanges"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Exchanges) == 0 {
			fmt.Println("No exchanges recorded.")
			return nil
		}
		for _, e := range result.Exchanges {
			message := e.Message
			if len(message) > 60 {
				message = message[:60] + "..."
			}
			outcome := e.TrackerOutcome
			if outcome != "ok" {
				outcome = colorize(colorYellow, outcome)
			}
			fmt.Printf("%s  %-10s  %6dms  %-12s  %s\n",
				e.CreatedAt.Local().Format("2006-01-02 15:04"),
				e.Language,
				e.ResponderMS,
				outcome,
				message,
			)
		}
		return nil
	},
}

func init() {
	activityCmd.Flags().Int("limit", 20, "maximum number of exchanges to show")
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
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
