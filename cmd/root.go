package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/polkaswap/bridge-sidecar/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "bridge-sidecar",
	Short: "Follows the bridge contracts and keeps the exchange ledger in sync",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initConfig(rootCmd)

	rootCmd.PersistentFlags().Bool(config.Debug, false, `"true" or "false"`)

	rootCmd.PersistentFlags().String(config.EthereumRpcUrl, "", `e.g. "http://<hostname>:8545"`)
	rootCmd.PersistentFlags().Uint64(config.EthereumConfirmations, 12, `Blocks to wait before a block is synced`)
	rootCmd.PersistentFlags().Duration(config.EthereumPollInterval, 12*time.Second, `How often to poll for a new tip`)
	rootCmd.PersistentFlags().Duration(config.EthereumRequestTimeout, 0, `Timeout of a single RPC call (default per method)`)
	rootCmd.PersistentFlags().Duration(config.EthereumMaxRetryElapsed, 5*time.Minute, `Give up retrying after this long, 0 retries forever`)
	rootCmd.PersistentFlags().Uint64(config.EthereumLogsBlockRange, 100, `Blocks per eth_getLogs request while catching up`)

	rootCmd.PersistentFlags().String(config.BridgeVaultAddress, config.DefaultVaultAddress, `Address of the bridge vault contract`)
	rootCmd.PersistentFlags().String(config.BridgeTokenAddress, config.DefaultTokenAddress, `Address of the bridged ERC-20 token`)
	rootCmd.PersistentFlags().Uint32(config.BridgeGenesisBlock, 0, `First block to sync on an empty ledger`)

	rootCmd.PersistentFlags().String(config.DatabaseDriverName, string(config.DatabaseDriver_Sqlite), `"sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String(config.DatabaseSqlitePath, "./bridge-sidecar.db", `Path of the sqlite database`)
	rootCmd.PersistentFlags().String(config.DatabaseHost, "localhost", `PostgreSQL host`)
	rootCmd.PersistentFlags().Int(config.DatabasePort, 5432, `PostgreSQL port`)
	rootCmd.PersistentFlags().String(config.DatabaseUser, "sidecar", `PostgreSQL username`)
	rootCmd.PersistentFlags().String(config.DatabasePassword, "", `PostgreSQL password`)
	rootCmd.PersistentFlags().String(config.DatabaseDbName, "bridge_sidecar", `PostgreSQL database name`)
	rootCmd.PersistentFlags().String(config.DatabaseSchemaName, "", `PostgreSQL schema name (default "public")`)
	rootCmd.PersistentFlags().String(config.DatabaseSSLMode, "disable", `PostgreSQL sslmode`)
	rootCmd.PersistentFlags().String(config.DatabaseSSLCert, "", `PostgreSQL client certificate`)
	rootCmd.PersistentFlags().String(config.DatabaseSSLKey, "", `PostgreSQL client key`)
	rootCmd.PersistentFlags().String(config.DatabaseSSLRootCert, "", `PostgreSQL root certificate`)

	rootCmd.PersistentFlags().String(config.BookmarkPath, "./bookmarks", `Directory of the bookmark store`)

	rootCmd.PersistentFlags().Int(config.RpcHttpPort, 7101, `http rpc port`)

	rootCmd.PersistentFlags().Bool(config.DataDogStatsdEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().String(config.DataDogStatsdUrl, "", `e.g. "localhost:8125"`)
	rootCmd.PersistentFlags().Float64(config.DataDogStatsdSampleRate, 1.0, `The sample rate to use for statsd metrics`)

	rootCmd.PersistentFlags().Bool(config.PrometheusEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().Int(config.PrometheusPort, 2112, `The port to run the prometheus server on`)

	rootCmd.PersistentFlags().Bool(config.RabbitMqEnabled, false, `Publish ledger events to RabbitMQ`)
	rootCmd.PersistentFlags().String(config.RabbitMqUrl, "localhost:5672", `RabbitMQ host and port`)
	rootCmd.PersistentFlags().String(config.RabbitMqUsername, "guest", `RabbitMQ username`)
	rootCmd.PersistentFlags().String(config.RabbitMqPassword, "guest", `RabbitMQ password`)
	rootCmd.PersistentFlags().Bool(config.RabbitMqSecure, false, `Use amqps`)
	rootCmd.PersistentFlags().String(config.RabbitMqExchange, "", `Exchange to publish to (default "bridge-events")`)

	// setup sub commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(exportBalancesCmd)
	rootCmd.AddCommand(runVersionCmd)

	// bind any subcommand flags
	replayCmd.PersistentFlags().String(config.ReplayInputFile, "", "File of length prefixed encoded blocks (required)")
	exportBalancesCmd.PersistentFlags().String(config.ExportOutputFile, "", "Path of the csv file to write (required)")
	decodeCmd.Flags().String(decodeHexFlag, "", "Hex encoded block (required)")

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfig(cmd *cobra.Command) {
	viper.SetEnvPrefix(config.ENV_PREFIX)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.AutomaticEnv()
}

// bindCommandFlags binds the flags local to a sub command.
func bindCommandFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(config.KebabToSnakeCase(f.Name), f); err != nil {
			fmt.Printf("Failed to bind flag '%s' - %+v\n", f.Name, err)
		}
		if err := viper.BindEnv(config.KebabToSnakeCase(f.Name)); err != nil {
			fmt.Printf("Failed to bind env '%s' - %+v\n", f.Name, err)
		}
	})
}
