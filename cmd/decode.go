package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polkaswap/bridge-sidecar/pkg/bridge/codec"
	"github.com/spf13/cobra"
)

const decodeHexFlag = "hex"

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Print a hex encoded block",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := cmd.Flags().GetString(decodeHexFlag)
		if err != nil {
			return err
		}
		if raw == "" {
			return fmt.Errorf("--%s is required", decodeHexFlag)
		}

		block, err := codec.DecodeBlockEvents(common.FromHex(raw))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Block %d: %d commands\n", block.BlockNumber, len(block.Methods))
		for i, m := range block.Methods {
			fmt.Fprintf(out, "%d: %s\n", i, m)
		}
		return nil
	},
}

