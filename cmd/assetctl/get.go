package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	getAcceptEncoding string
	getOutput         string
)

var getCmd = &cobra.Command{
	Use:   "get URL",
	Short: "Fetch an asset, following streaming tokens",
	Long:  "URL is a path with optional query, e.g. /docs/readme.txt?token=secret.",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	getCmd.Flags().StringVar(&getAcceptEncoding, "accept-encoding", "", "Accept-Encoding sent with the request")
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "write the body to a file instead of stdout")
}

func runGet(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	dl, err := c.Get(cmd.Context(), args[0], getAcceptEncoding)
	if err != nil {
		return err
	}
	if dl.StatusCode != 200 {
		return fmt.Errorf("status %d: %s", dl.StatusCode, dl.Body)
	}

	if getOutput != "" {
		if err := os.WriteFile(getOutput, dl.Body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", getOutput, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes in %d chunks to %s\n", len(dl.Body), dl.Chunks, getOutput)
		return nil
	}

	_, err = cmd.OutOrStdout().Write(dl.Body)
	return err
}
