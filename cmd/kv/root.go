package kv

import (
	"github.com/ValentinKolb/sKV/cmd/util"
	"github.com/ValentinKolb/sKV/lib/store"
	"github.com/spf13/cobra"
)

var (
	kvStore store.IStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value store operations",
		PersistentPreRunE:  openStore,
		PersistentPostRunE: closeStore,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add store flags to the KV command
	util.SetupStoreFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(dropCmd)
	KeyValueCommands.AddCommand(findOneCmd)
	KeyValueCommands.AddCommand(findManyCmd)
	KeyValueCommands.AddCommand(deleteManyCmd)
	KeyValueCommands.AddCommand(allCmd)
	KeyValueCommands.AddCommand(pingCmd)
	KeyValueCommands.AddCommand(statsCmd)
	KeyValueCommands.AddCommand(infoCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// openStore opens the local store
func openStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	kvStore, _, err = util.OpenStore()
	return err
}

// closeStore closes the local store
func closeStore(_ *cobra.Command, _ []string) error {
	if kvStore == nil {
		return nil
	}
	return kvStore.Close()
}
