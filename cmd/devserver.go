package cmd

import (
	"time"

	"github.com/bz888/codeagent/internal/api/server"
	"github.com/spf13/cobra"
)

var devServerOpts struct {
	addr       string
	chunkSize  int
	chunkDelay time.Duration
}

var devServerCmd = &cobra.Command{
	Use:   "dev-server",
	Short: "Serve an in-memory stand-in for the generation service",
	Long: `Runs a local backend that implements the service endpoints without any
model: chat answers echo the instruction and code in small chunks, and
completions echo the last line before the cursor. Useful for trying the
client and for development.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := server.New(server.WithChunking(devServerOpts.chunkSize, devServerOpts.chunkDelay))
		return s.Run(devServerOpts.addr)
	},
}

func init() {
	flags := devServerCmd.Flags()
	flags.StringVar(&devServerOpts.addr, "addr", "127.0.0.1:8000", "Address to listen on")
	flags.IntVar(&devServerOpts.chunkSize, "chunk-size", 8, "Bytes per streamed chunk")
	flags.DurationVar(&devServerOpts.chunkDelay, "chunk-delay", 20*time.Millisecond, "Pause between streamed chunks")
}
