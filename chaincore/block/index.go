package block

import (
	"github.com/tyGavinZJU/miningbot-sub001/core/datastore"
	"github.com/tyGavinZJU/miningbot-sub001/core/encryption"
)

/*MakeIndexBlockHash - the version identifier of a block: the hash of the
consensus hash and the block header hash */
func MakeIndexBlockHash(consensusHash []byte, blockHash []byte) datastore.BlockID {
	return datastore.BlockID(encryption.HashParts(consensusHash, blockHash))
}
