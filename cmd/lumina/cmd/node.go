package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/luminaworld/lumina-go-node/api"
	"github.com/luminaworld/lumina-go-node/config"
	"github.com/luminaworld/lumina-go-node/core/appdb"
	"github.com/luminaworld/lumina-go-node/core/bridge"
	"github.com/luminaworld/lumina-go-node/core/chain"
	"github.com/luminaworld/lumina-go-node/core/events"
	"github.com/luminaworld/lumina-go-node/core/mempool"
	"github.com/luminaworld/lumina-go-node/core/state"
	"github.com/luminaworld/lumina-go-node/core/transaction"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/core/validators"
	"github.com/luminaworld/lumina-go-node/log"
	"github.com/luminaworld/lumina-go-node/version"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	db "github.com/tendermint/tm-db"
	"golang.org/x/sync/errgroup"
)

// RunNode is the command that allows the CLI to start a node.
var RunNode = &cobra.Command{
	Use:   "node",
	Short: "Run the Lumina node",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runNode()
	},
}

func runNode() error {
	logger, err := log.NewLogger(cfg)
	if err != nil {
		return err
	}

	genesisDoc, err := loadGenesis(cfg.GenesisFile())
	if err != nil {
		return err
	}

	nodeKey, err := loadOrGenNodeKey(cfg.NodeKeyFile())
	if err != nil {
		return err
	}

	stateDB, err := openDB("state", cfg)
	if err != nil {
		return err
	}
	applicationDB, err := openDB("app", cfg)
	if err != nil {
		return err
	}
	blocksDB, err := openDB("blocks", cfg)
	if err != nil {
		return err
	}
	eventsDB, err := openDB("events", cfg)
	if err != nil {
		return err
	}
	bridgeDB, err := openDB("bridge", cfg)
	if err != nil {
		return err
	}

	eventsStore := events.NewEventsStore(eventsDB)

	appState, err := state.NewState(0, stateDB, eventsStore, cfg.StateCacheSize, cfg.KeepLastStates)
	if err != nil {
		return errors.Wrap(err, "cannot load state")
	}

	appDB := appdb.NewAppDB(applicationDB)
	blocks := chain.NewStore(blocksDB)
	pool := mempool.NewMempool(cfg.MempoolSize)

	b := bridge.NewBridge(appState, bridge.NewStore(bridgeDB), eventsStore, genesisDoc.Bridge, logger.With("module", "bridge"))
	executor := transaction.NewExecutor(types.CurrentChainID, bridge.TxBridge{Bridge: b})

	blockchain := chain.NewBlockchain(
		appState,
		appDB,
		blocks,
		pool,
		executor,
		validators.NewSet(nil),
		eventsStore,
		nodeKey,
		cfg.BlockInterval(),
		cfg.MaxBlockTxs,
		logger.With("module", "chain"),
	)

	if err := blockchain.InitGenesis(genesisDoc); err != nil {
		return errors.Wrap(err, "cannot apply genesis")
	}

	logger.Info("starting node",
		"version", version.Version,
		"moniker", cfg.Moniker,
		"chain_id", types.CurrentChainID,
		"height", blockchain.LastHeight())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return api.RunAPI(ctx, cfg, blockchain, b, logger.With("module", "api"))
	})
	group.Go(func() error {
		err := blockchain.Serve(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return group.Wait()
}

// openDB opens one named database under the data dir. The goleveldb
// backend gets a bloom filter and a larger file cache.
func openDB(name string, cfg *config.Config) (db.DB, error) {
	if cfg.DBBackend == string(db.GoLevelDBBackend) {
		return db.NewGoLevelDBWithOpts(name, cfg.DBDir(), &opt.Options{
			OpenFilesCacheCapacity: 1024,
			Filter:                 filter.NewBloomFilter(10),
		})
	}
	return db.NewDB(name, db.BackendType(cfg.DBBackend), cfg.DBDir())
}

func loadGenesis(path string) (types.AppState, error) {
	var appState types.AppState

	data, err := os.ReadFile(path)
	if err != nil {
		return appState, errors.Wrap(err, "cannot read genesis file")
	}

	if err := json.Unmarshal(data, &appState); err != nil {
		return appState, errors.Wrap(err, "cannot parse genesis file")
	}

	return appState, nil
}
