package cli

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

func newOCRCmd(a *app) *cobra.Command {
	var remote string
	cmd := &cobra.Command{
		Use:   "ocr <file|->",
		Short: "Recognize text in an image",
		Long:  `Recognize a single line of Chinese/Latin text in an image file, or stdin with "-".`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			text, err := a.ocr(cmd.Context(), base64.StdEncoding.EncodeToString(data), remote)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVar(&remote, "remote", "", "gRPC address of a running prinsp server")
	return cmd
}

func (a *app) ocr(ctx context.Context, b64, remote string) (string, error) {
	if remote != "" {
		client, err := dialRemote(ctx, remote)
		if err != nil {
			return "", err
		}
		defer client.Close()
		return client.ExtractText(ctx, b64)
	}

	rt := newStack(a.cfg)
	defer rt.cleanup()
	return rt.orch.OCRImage(ctx, b64)
}
