package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hansollee/lorecheck/internal/model"
	"github.com/hansollee/lorecheck/internal/store"
)

var factsStorePath string

// factsCmd represents the facts command group
var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Manage the canonical fact store",
	Long: `Manage the fact store that analyze checks drafts against:
world settings, character sheets, and episode history.

Character names are matched fuzzily, so "세라핀" finds a character
recorded as "세라핀 공주".

Example:
  lorecheck facts show
  lorecheck facts set-character "세라핀" hair=은발 eye_color=보라색
  lorecheck facts set-world magic_system "마나 기반, 서클 1-9"
  lorecheck facts record-episode 12 "왕도 귀환" --summary "세라핀이 왕도로 돌아온다"
  lorecheck facts remove-character "단역 병사"`,
}

var factsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the fact store as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		sheet, err := st.Snapshot()
		if err != nil {
			return fmt.Errorf("read fact store: %w", err)
		}

		data, err := yaml.Marshal(sheet)
		if err != nil {
			return fmt.Errorf("marshal fact store: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

var factsSetCharacterCmd = &cobra.Command{
	Use:   "set-character <name> [trait=value ...]",
	Short: "Create or update a character sheet",
	Long: `Create or update a character. If a character with a matching name
already exists, the given traits merge into its sheet; otherwise a new
character is created.

Trait values parse as JSON where possible (numbers, booleans, arrays),
falling back to plain strings.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		traits, err := parseTraits(args[1:])
		if err != nil {
			return err
		}

		st := openStore()
		ch, err := st.UpsertCharacter(args[0], traits)
		if err != nil {
			return fmt.Errorf("update character: %w", err)
		}
		fmt.Printf("Recorded character %q (%s)\n", ch.Name, ch.ID)
		return nil
	},
}

var factsUpdateCharacterCmd = &cobra.Command{
	Use:   "update-character <name> trait=value [trait=value ...]",
	Short: "Update an existing character sheet",
	Long: `Merge traits into an existing character's sheet. Unlike set-character,
this fails when no recorded character matches the name.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		traits, err := parseTraits(args[1:])
		if err != nil {
			return err
		}

		st := openStore()
		ch, err := st.UpdateCharacterByName(args[0], traits)
		if err != nil {
			if model.IsKind(err, model.KindLookupMiss) {
				return fmt.Errorf("no character matches %q", args[0])
			}
			return fmt.Errorf("update character: %w", err)
		}
		fmt.Printf("Updated character %q (%s)\n", ch.Name, ch.ID)
		return nil
	},
}

var factsRemoveCharacterCmd = &cobra.Command{
	Use:   "remove-character <name>",
	Short: "Remove a character from the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		if err := st.RemoveCharacterByName(args[0]); err != nil {
			if model.IsKind(err, model.KindLookupMiss) {
				return fmt.Errorf("no character matches %q", args[0])
			}
			return fmt.Errorf("remove character: %w", err)
		}
		fmt.Printf("Removed character %q\n", args[0])
		return nil
	},
}

var factsSetWorldCmd = &cobra.Command{
	Use:   "set-world <key> <value>",
	Short: "Set a world setting",
	Long: `Record a world setting under the given key. The value parses as JSON
where possible, falling back to a plain string.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		if err := st.SetWorld(args[0], parseValue(args[1])); err != nil {
			return fmt.Errorf("set world setting: %w", err)
		}
		fmt.Printf("Recorded world setting %q\n", args[0])
		return nil
	},
}

var (
	episodeSummary string
	episodeEvents  []string
)

var factsRecordEpisodeCmd = &cobra.Command{
	Use:   "record-episode <number> <title>",
	Short: "Record a published episode",
	Long: `Record an episode's title, summary, and key events. Recording an
episode number that already exists replaces the earlier entry.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid episode number %q", args[0])
		}

		st := openStore()
		ep := model.Episode{
			Number:  number,
			Title:   args[1],
			Summary: episodeSummary,
			Events:  episodeEvents,
		}
		if err := st.RecordEpisode(ep); err != nil {
			return fmt.Errorf("record episode: %w", err)
		}
		fmt.Printf("Recorded episode %d: %s\n", number, args[1])
		return nil
	},
}

func openStore() *store.Store {
	path := factsStorePath
	if path == "" {
		path = loadConfig().Store.Path
	}
	return store.Open(path, 0)
}

// parseTraits converts key=value arguments into a trait map
func parseTraits(args []string) (map[string]any, error) {
	traits := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid trait %q (want key=value)", arg)
		}
		traits[key] = parseValue(value)
	}
	return traits, nil
}

// parseValue decodes a CLI value as JSON when it parses, string otherwise
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

func init() {
	rootCmd.AddCommand(factsCmd)
	factsCmd.AddCommand(factsShowCmd)
	factsCmd.AddCommand(factsSetCharacterCmd)
	factsCmd.AddCommand(factsUpdateCharacterCmd)
	factsCmd.AddCommand(factsRemoveCharacterCmd)
	factsCmd.AddCommand(factsSetWorldCmd)
	factsCmd.AddCommand(factsRecordEpisodeCmd)

	factsCmd.PersistentFlags().StringVar(&factsStorePath, "facts", "", "fact store path (default facts.json)")
	factsRecordEpisodeCmd.Flags().StringVar(&episodeSummary, "summary", "", "one-paragraph episode summary")
	factsRecordEpisodeCmd.Flags().StringArrayVar(&episodeEvents, "event", nil, "key event (repeatable)")
}
