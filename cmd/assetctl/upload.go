package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abduss/assethost/internal/client"
	"github.com/spf13/cobra"
)

var (
	uploadPath        string
	uploadCollection  string
	uploadEncoding    string
	uploadToken       string
	uploadName        string
	uploadDescription string
	uploadChunkSize   int
	uploadHeaders     []string
)

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload a file as one encoding of an asset",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadPath, "path", "", "asset path, e.g. /docs/readme.txt (default /<file name>)")
	uploadCmd.Flags().StringVar(&uploadCollection, "collection", "", "collection the asset belongs to")
	uploadCmd.Flags().StringVar(&uploadEncoding, "encoding", "identity", "encoding to produce: identity, gzip or deflate")
	uploadCmd.Flags().StringVar(&uploadToken, "token", "", "access token readers must present")
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "display name (default file name)")
	uploadCmd.Flags().StringVar(&uploadDescription, "description", "", "description")
	uploadCmd.Flags().IntVar(&uploadChunkSize, "chunk-size", 0, "chunk size in bytes (default from profile)")
	uploadCmd.Flags().StringArrayVarP(&uploadHeaders, "header", "H", nil, "response header 'Name: value', repeatable")
	_ = uploadCmd.MarkFlagRequired("collection")
}

func runUpload(cmd *cobra.Command, args []string) error {
	file := args[0]
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	fullPath := uploadPath
	if fullPath == "" {
		fullPath = "/" + filepath.Base(file)
	}
	chunkSize := uploadChunkSize
	if chunkSize <= 0 {
		chunkSize = profile.ChunkSize
	}
	headers, err := parseHeaders(uploadHeaders)
	if err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	result, err := c.Upload(cmd.Context(), client.UploadRequest{
		FullPath:    fullPath,
		Collection:  uploadCollection,
		Name:        uploadName,
		Description: uploadDescription,
		Token:       uploadToken,
		Encoding:    uploadEncoding,
		Content:     content,
		ChunkSize:   chunkSize,
		Headers:     headers,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s as %s (%s, %d bytes in %d chunks, batch %d)\n",
		file, fullPath, uploadEncoding, result.Bytes, len(result.ChunkIDs), result.BatchID)
	return nil
}

func parseHeaders(raw []string) ([][2]string, error) {
	headers := make([][2]string, 0, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		headers = append(headers, [2]string{strings.TrimSpace(name), strings.TrimSpace(value)})
	}
	return headers, nil
}
