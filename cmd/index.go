package cmd

import (
	"context"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ragtutor/src/core/document"
	"ragtutor/src/core/vectorindex"
	"ragtutor/src/fsutil"
	"ragtutor/src/log"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index a directory of documents",
	Long: `The index command chunks and embeds every supported document under the
given directory, then saves the resulting vector index to index.path.`,
	Run: RunIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringP("dir", "d", "", "Directory of documents to index (defaults to documents.path)")
	indexCmd.Flags().Bool("append", false, "Append to an existing persisted index instead of starting fresh")
}

func RunIndex(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	fs := fsutil.NewLocalFileStore()

	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = viper.GetString("documents.path")
	}
	appendToExisting, _ := cmd.Flags().GetBool("append")

	index := vectorindex.NewIndex(viper.GetInt("embedding.dimension"))
	indexPath := viper.GetString("index.path")
	if appendToExisting {
		if err := index.Load(fs, indexPath); err != nil {
			log.Error(err, "failed to load existing index", "path", indexPath)
			return
		}
	}

	service, err := buildService(index, fs)
	if err != nil {
		log.Error(err, "failed to build rag service")
		return
	}

	loader := document.NewLoader(fs)
	docs, err := loader.LoadDirectory(dir)
	if err != nil {
		log.Error(err, "failed to load documents", "dir", dir)
		return
	}
	if len(docs) == 0 {
		log.Info("no documents to index", "dir", dir)
		return
	}

	bar := progressbar.Default(int64(len(docs)), "indexing")
	total := 0
	for _, doc := range docs {
		n, err := service.IndexDocument(ctx, doc)
		if err != nil {
			log.Error(err, "skipping document", "source", doc.Source)
		} else {
			total += n
		}
		bar.Add(1)
	}

	if err := index.Save(fs, indexPath); err != nil {
		log.Error(err, "failed to save vector index", "path", indexPath)
		return
	}

	log.Info("indexing complete",
		"documents", len(docs),
		"chunks", total,
		"indexSize", index.Size(),
		"path", indexPath)
}
