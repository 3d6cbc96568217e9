package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agentworkforce/moviebot/internal/config"
	"github.com/agentworkforce/moviebot/internal/moviebot"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Inspect and maintain stored user settings",
}

var userShowCmd = &cobra.Command{
	Use:   "show <telegram-user-id>",
	Short: "Show which settings a user has configured",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		return withStore(func(_ *config.Config, store moviebot.CredentialStore) error {
			creds, ok, err := store.Get(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "user %d: %s\n", userID, color.New(color.FgRed).Sprint("NOT FOUND"))
				return nil
			}
			printCredentials(cmd.OutOrStdout(), creds)
			return nil
		})
	},
}

var userResetCmd = &cobra.Command{
	Use:   "reset <telegram-user-id>",
	Short: "Replace a user's settings with an empty row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		return withStore(func(_ *config.Config, store moviebot.CredentialStore) error {
			if err := store.Reset(cmd.Context(), userID); err != nil {
				return fmt.Errorf("reset user %d: %w", userID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d: %s\n", userID, color.New(color.FgGreen).Sprint("RESET"))
			return nil
		})
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <telegram-user-id>",
	Short: "Remove a user's settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		return withStore(func(_ *config.Config, store moviebot.CredentialStore) error {
			removed, err := store.Delete(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("delete user %d: %w", userID, err)
			}
			status := color.New(color.FgYellow).Sprint("NOT FOUND")
			if removed {
				status = color.New(color.FgRed).Sprint("DELETED")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d: %s\n", userID, status)
			return nil
		})
	},
}

var userUsageCmd = &cobra.Command{
	Use:   "usage <telegram-user-id>",
	Short: "Show the IMDb-API quota for a user's key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		return withStore(func(cfg *config.Config, store moviebot.CredentialStore) error {
			summary, err := moviebot.QuotaSummary(cmd.Context(), store, newIMDbClient(cfg), moviebot.ParseLocale(cfg.Locale), userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		})
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the Notion database schema created by /create_notion_db",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(moviebot.CollectionSchema())
	},
}

func init() {
	userCmd.AddCommand(userShowCmd, userResetCmd, userDeleteCmd, userUsageCmd)
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram user id %q", raw)
	}
	return id, nil
}

func withStore(fn func(*config.Config, moviebot.CredentialStore) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	store, err := moviebot.BuildCredentialStoreFromDSN(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func printCredentials(w io.Writer, creds moviebot.UserCredentials) {
	fmt.Fprintf(w, "user %d\n", creds.UserID)
	fmt.Fprintf(w, "  IMDb token:         %s\n", settingStatus(creds.MetadataToken, "default key"))
	fmt.Fprintf(w, "  Notion token:       %s\n", settingStatus(creds.StoreToken, ""))
	fmt.Fprintf(w, "  Notion database ID: %s\n", settingStatus(creds.CollectionID, ""))
	if creds.IsStoreReady() {
		fmt.Fprintf(w, "  ready:              %s\n", color.New(color.FgGreen).Sprint("✓"))
		return
	}
	missing := make([]string, 0, 2)
	for _, field := range creds.MissingStoreSettings() {
		missing = append(missing, field.String())
	}
	fmt.Fprintf(w, "  ready:              %s (missing %s)\n", color.New(color.FgYellow).Sprint("!"), strings.Join(missing, ", "))
}

func settingStatus(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return color.New(color.FgGreen).Sprint("set")
	}
	if fallback != "" {
		return color.New(color.FgYellow).Sprintf("not set (%s)", fallback)
	}
	return color.New(color.FgRed).Sprint("not set")
}
