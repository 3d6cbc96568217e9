package main

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "moviebot",
	Short: "Telegram bot that saves IMDb titles into a Notion movie list",
	Long: `moviebot lets Telegram users search IMDb-API and add the chosen title
to a Notion database they own.

Configuration comes from the environment (TG_BOT_TOKEN, DATABASE_URL, HOST,
PORT, DEFAULT_IMDB_API_KEY, HELP_PAGE and MOVIEBOT_* extras) and, optionally,
a config file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (yaml, json or toml); environment variables take precedence",
	)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(schemaCmd)
}
