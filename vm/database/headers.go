package database

import (
	"github.com/tyGavinZJU/miningbot-sub001/core/datastore"
)

/*HeadersDB - chain data the runtime reads but does not own */
type HeadersDB interface {
	GetBurnBlockTime(id datastore.BlockID) (uint64, bool)
	GetBurnHeaderHash(id datastore.BlockID) ([]byte, bool)
}

/*NullHeadersDB - knows no blocks */
type NullHeadersDB struct{}

/*GetBurnBlockTime - implement interface */
func (NullHeadersDB) GetBurnBlockTime(datastore.BlockID) (uint64, bool) { return 0, false }

/*GetBurnHeaderHash - implement interface */
func (NullHeadersDB) GetBurnHeaderHash(datastore.BlockID) ([]byte, bool) { return nil, false }
