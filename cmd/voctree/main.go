package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "voctree",
	Short: "Vocabulary tree image and caption search",
	Long: `voctree indexes image patches and caption words into two vocabulary
trees stored in SQLite and answers text queries over captioned and
uncaptioned images.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (defaults plus VOCTREE_* environment when empty)")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(imageCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
