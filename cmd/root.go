package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragtutor/src/log"
)

var rootCmd = &cobra.Command{
	Use:   "ragtutor",
	Short: "Retrieval-augmented question answering over a document corpus",
	Long: `ragtutor indexes documents into an in-memory vector index and answers
natural-language questions by retrieving relevant chunks and feeding them to
a language model, with session-scoped conversation memory and citations.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded environment from .env")
	}

	settingDefaultConfig()
}
