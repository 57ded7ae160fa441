package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"article-finder/config"
	"article-finder/retriever"
	"article-finder/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "article-finder",
		Short:         "Role-aware hybrid search over PDF document corpora",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(cfg, logger))
	root.AddCommand(newIndexCmd(cfg, logger))
	root.AddCommand(newQueryCmd(cfg, logger))
	return root
}

func newServeCmd(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ret := retriever.New(cfg, logger)
			server := web.NewServer(ret, logger, cfg)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return server.Start(ctx)
		},
	}
}

func newIndexCmd(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	var sourceDir string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Segment the corpus and rebuild the search indices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sourceDir == "" {
				sourceDir = cfg.CorpusDir
			}
			ret := retriever.New(cfg, logger)
			if err := ret.BuildIndex(cmd.Context(), sourceDir); err != nil {
				return err
			}
			logger.Info("Index rebuilt",
				zap.String("source_dir", sourceDir),
				zap.Int("chunks", ret.ChunkCount()))
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceDir, "source", "", "directory of PDF documents to index (defaults to CORPUS_DIR)")
	return cmd
}

func newQueryCmd(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	var (
		roles []string
		topk  int
	)

	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Run a single search from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ret := retriever.New(cfg, logger)
			out, err := ret.Search(cmd.Context(), strings.Join(args, " "), roles, topk)
			if err != nil {
				return err
			}
			printResults(cmd, out)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&roles, "roles", []string{"staff"}, "roles held by the caller")
	cmd.Flags().IntVar(&topk, "topk", 5, "maximum number of results")
	return cmd
}

func printResults(cmd *cobra.Command, out *retriever.Response) {
	cmd.Printf("\nANSWER:\n%s\n", out.Answer)
	cmd.Println("\nRESULTS:")
	for _, r := range out.Results {
		cmd.Printf("- %s | Article %s | pages %d-%d | score=%.3f\n",
			r.DocID, r.ArticleNo, r.PageStart, r.PageEnd, r.Score)
		excerpt := strings.ReplaceAll(r.Excerpt, "\n", " ")
		if len(excerpt) > 300 {
			excerpt = excerpt[:300]
		}
		cmd.Printf("  excerpt: %s\n\n", excerpt)
	}
}
