package main

import (
	"fmt"
	"math"
	"os"

	"github.com/fatih/color"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/opd-ai/packetxfer/crypto"
	"github.com/opd-ai/packetxfer/file"
	"github.com/opd-ai/packetxfer/limits"
)

func newChecksumCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checksum FILE...",
		Short: "Print the transfer digest, size and packet count of local files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.cfg.Options()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range args {
				info, err := os.Stat(p)
				if err != nil {
					return err
				}
				if info.IsDir() {
					return fmt.Errorf("%s is a directory", p)
				}
				if info.Size() > math.MaxUint32 {
					return fmt.Errorf("%w: %s is %d bytes", file.ErrPayloadTooLarge, p, info.Size())
				}
				sum, err := crypto.HashFile(p, opts.Algorithm)
				if err != nil {
					return err
				}
				kind := "unknown"
				if mime, err := mimetype.DetectFile(p); err == nil {
					kind = mime.String()
				}
				packets := limits.CalcPacketCount(uint32(info.Size()), opts.PacketLength)
				fmt.Fprintf(out, "%s  %s  %d bytes  %d packets  %s\n",
					color.CyanString(sum.String()), p, info.Size(), packets, kind)
			}
			return nil
		},
	}
}
