package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpHdlr "ragtutor/handler/http"
	"ragtutor/src/core/vectorindex"
	"ragtutor/src/fsutil"
	"ragtutor/src/log"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the question answering server",
	Long: `The serve command starts an HTTP server exposing the query, indexing and
conversation APIs. A previously saved vector index is restored from
index.path when present.`,
	Run: RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer(cmd *cobra.Command, args []string) {
	fs := fsutil.NewLocalFileStore()

	// Restore persisted index if one exists
	index := vectorindex.NewIndex(viper.GetInt("embedding.dimension"))
	indexPath := viper.GetString("index.path")
	if err := index.Load(fs, indexPath); err != nil {
		if errors.Is(err, vectorindex.ErrNotFound) {
			log.Info("no persisted index found, starting empty", "path", indexPath)
		} else {
			log.Error(err, "failed to load persisted index")
			return
		}
	}

	service, err := buildService(index, fs)
	if err != nil {
		log.Error(err, "failed to build rag service")
		return
	}

	handler := httpHdlr.NewHandler(service)

	// Setup gin router
	r := gin.Default()
	handler.RegisterRoutes(r)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "failed to start server")
			return
		}
	}()
	log.Info("server started", "port", viper.GetString("server.port"), "indexedChunks", index.Size())

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("server.shutdown_timeout"))
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "server forced to shutdown")
	}

	// Persist the index so a restart picks up where we left off
	if index.Size() > 0 {
		if err := index.Save(fs, indexPath); err != nil {
			log.Error(err, "failed to save vector index")
		}
	}
}
