package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ragtutor/src/core/rag"
	"ragtutor/src/core/vectorindex"
	"ragtutor/src/fsutil"
	"ragtutor/src/log"
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question against a saved index",
	Long: `The query command loads the persisted vector index and answers a single
question, streaming the generated answer to stdout.`,
	Args: cobra.MinimumNArgs(1),
	Run:  RunQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().IntP("top-k", "k", 0, "Number of chunks to retrieve (defaults to retrieval.top_k)")
	queryCmd.Flags().String("session", "", "Session id for conversation continuity")
}

func RunQuery(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	fs := fsutil.NewLocalFileStore()

	index := vectorindex.NewIndex(viper.GetInt("embedding.dimension"))
	if err := index.Load(fs, viper.GetString("index.path")); err != nil {
		log.Error(err, "failed to load vector index; run 'ragtutor index' first")
		os.Exit(1)
	}

	service, err := buildService(index, fs)
	if err != nil {
		log.Error(err, "failed to build rag service")
		os.Exit(1)
	}

	topK, _ := cmd.Flags().GetInt("top-k")
	sessionID, _ := cmd.Flags().GetString("session")

	resp, err := service.QueryStream(ctx, rag.Request{
		Query:     strings.Join(args, " "),
		TopK:      topK,
		SessionID: sessionID,
	}, func(chunk string) error {
		fmt.Print(chunk)
		return nil
	})
	if err != nil {
		log.Error(err, "query failed")
		os.Exit(1)
	}

	fmt.Println()
	if len(resp.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, citation := range resp.Citations {
			fmt.Println("  " + citation)
		}
	}
	fmt.Printf("\nsession: %s  retrieval: %.3fs  generation: %.3fs\n",
		resp.SessionID, resp.RetrievalTime, resp.GenerationTime)
}
