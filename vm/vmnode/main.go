package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tyGavinZJU/miningbot-sub001/chaincore/block"
	"github.com/tyGavinZJU/miningbot-sub001/chaincore/config"
	"github.com/tyGavinZJU/miningbot-sub001/core/datastore"
	"github.com/tyGavinZJU/miningbot-sub001/core/logging"
	"github.com/tyGavinZJU/miningbot-sub001/core/persistencestore"
	"github.com/tyGavinZJU/miningbot-sub001/vm/database"
)

var genesisID = block.MakeIndexBlockHash([]byte("genesis"), []byte("genesis"))

func main() {
	configFile := flag.String("config", "", "config file")
	mode := flag.String("mode", "development", "development, production or test")
	genesisFile := flag.String("genesis", "", "genesis allocations file; overrides vm.genesis")
	dump := flag.Bool("dump", false, "print the genesis state trie after checking it")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.ReadConfig(*configFile)
	} else {
		cfg, err = config.Load(viper.GetViper())
	}
	if err != nil {
		log.Fatal(err)
	}
	logging.InitLogging(*mode, cfg.Logging.Dir)
	if *genesisFile != "" {
		cfg.Genesis = *genesisFile
	}

	store, err := cfg.OpenStore()
	if err != nil {
		logging.Logger.Fatal("open store", zap.Error(err))
	}
	if ts, ok := store.(*persistencestore.TrieStore); ok {
		defer ts.Close()
		if _, exists, err := ts.GetVersionInfo(genesisID); err != nil {
			logging.Logger.Fatal("read genesis version", zap.Error(err))
		} else if exists {
			check(ts)
			if *dump {
				if err := ts.Dump(genesisID, os.Stdout); err != nil {
					logging.Logger.Fatal("dump genesis", zap.Error(err))
				}
			}
			return
		}
	}

	var allocations []database.GenesisAllocation
	if cfg.Genesis != "" {
		if allocations, err = database.ReadGenesisAllocations(cfg.Genesis); err != nil {
			logging.Logger.Fatal("read genesis", zap.String("file", cfg.Genesis), zap.Error(err))
		}
	}
	root, err := initialize(store, allocations)
	if err != nil {
		logging.Logger.Fatal("initialize", zap.Error(err))
	}
	logging.Logger.Info("genesis committed",
		zap.Stringer("block", genesisID),
		zap.Int("allocations", len(allocations)))
	fmt.Printf("genesis %v root %x\n", genesisID, root)
}

func initialize(store datastore.BackingStore, allocations []database.GenesisAllocation) ([]byte, error) {
	if err := store.Begin(datastore.SentinelBlockID, genesisID); err != nil {
		return nil, err
	}
	db := database.NewClarityDatabase(store, nil)
	db.Begin()
	if err := db.Initialize(allocations...); err != nil {
		db.RollBack()
		store.RollbackVersion()
		return nil, err
	}
	if err := db.Commit(); err != nil {
		store.RollbackVersion()
		return nil, err
	}
	return store.CommitVersion()
}

func check(ts *persistencestore.TrieStore) {
	view, err := ts.AtVersion(genesisID)
	if err != nil {
		logging.Logger.Fatal("open genesis", zap.Error(err))
	}
	db := database.NewClarityDatabase(view, nil)
	if err := db.CheckStorageFormat(); err != nil {
		logging.Logger.Fatal("storage format", zap.Error(err))
	}
	supply, err := db.GetSTXLiquidSupply()
	if err != nil {
		logging.Logger.Fatal("liquid supply", zap.Error(err))
	}
	fmt.Printf("genesis %v already initialized, liquid supply %s\n", genesisID, supply.Decimal())
}
