package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index a directory of documents into the vector store",
	Long: `Load .md, .markdown, .txt, .html and .htm files, split them into
chunks and add them to the configured vector store.

Examples:
  ragagent ingest
  ragagent ingest ./docs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.VectorStore.Kind == "memory" {
		a.logger.Warn("the memory vector store does not outlive this command; chat and serve index ingest.dir themselves")
	}

	dir := a.cfg.Ingest.Dir
	if len(args) == 1 {
		dir = args[0]
	}

	ctx := cmd.Context()
	embedder, err := a.newEmbedder()
	if err != nil {
		return err
	}
	vs, err := a.newVectorStore(ctx, embedder)
	if err != nil {
		return err
	}
	in, err := a.newIngester(vs)
	if err != nil {
		return err
	}

	stats, err := in.Run(ctx, dir)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("ingestion complete"))
	fmt.Println(infoStyle.Render(fmt.Sprintf("files      %d", stats.Files)))
	fmt.Println(infoStyle.Render(fmt.Sprintf("documents  %d", stats.Documents)))
	fmt.Println(infoStyle.Render(fmt.Sprintf("chunks     %d (min %d, max %d, avg %d chars)", stats.Chunks, stats.MinChunk, stats.MaxChunk, stats.AvgChunk)))
	if a.cfg.Ingest.SmokeQuery != "" {
		fmt.Println(infoStyle.Render(fmt.Sprintf("smoke query returned %d passage(s)", stats.SmokeHits)))
	}
	fmt.Println(infoStyle.Render(fmt.Sprintf("took       %s", stats.Elapsed.Round(time.Millisecond))))
	return nil
}
