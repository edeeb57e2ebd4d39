package state

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// Key layout, one prefix per table:
//
//	farm/pool/<id>                  pool record (JSON)
//	farm/pooltoken/<token>          stake token -> pool id index
//	farm/poolcount                  number of pools
//	farm/totalweight                aggregate pool weight
//	farm/pos/<id>/<owner>           stake position (JSON)
//	vault/claim/<id>                claim record (JSON)
//	vault/owner/<id>                ownership index, removed on exercise
//	vault/nextid                    next claim id
//	token/bal/<token>/<holder>      balance (decimal string)
//	token/allow/<token>/<o>/<s>     allowance (decimal string)
//	token/minter/<token>/<addr>     minter flag
func poolKey(id uint64) []byte {
	return []byte("farm/pool/" + strconv.FormatUint(id, 10))
}

func poolTokenKey(token common.Address) []byte {
	return []byte("farm/pooltoken/" + token.Hex())
}

var (
	poolCountKey   = []byte("farm/poolcount")
	totalWeightKey = []byte("farm/totalweight")
	nextClaimKey   = []byte("vault/nextid")
)

func positionKey(poolID uint64, owner common.Address) []byte {
	return []byte("farm/pos/" + strconv.FormatUint(poolID, 10) + "/" + owner.Hex())
}

func claimKey(id uint64) []byte {
	return []byte("vault/claim/" + strconv.FormatUint(id, 10))
}

func claimOwnerKey(id uint64) []byte {
	return []byte("vault/owner/" + strconv.FormatUint(id, 10))
}

func balanceKey(token, holder common.Address) []byte {
	return []byte("token/bal/" + token.Hex() + "/" + holder.Hex())
}

func allowanceKey(token, owner, spender common.Address) []byte {
	return []byte("token/allow/" + token.Hex() + "/" + owner.Hex() + "/" + spender.Hex())
}

func minterKey(token, addr common.Address) []byte {
	return []byte("token/minter/" + token.Hex() + "/" + addr.Hex())
}
