package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/luminaworld/lumina-go-node/core/types"
)

// Status returns a snapshot of the node and token state
func (s *Service) Status(c *gin.Context) {
	height := s.blockchain.LastHeight()

	var lastHash, lastTime interface{}
	if block, err := s.blockchain.GetBlock(height); err == nil && block != nil {
		lastHash = block.Hash().String()
		lastTime = block.Timestamp
	}

	token := s.blockchain.CheckState().Token()

	c.JSON(http.StatusOK, Response{
		Code: 0,
		Result: gin.H{
			"moniker":             s.moniker,
			"chain_id":            types.CurrentChainID,
			"halted":              s.blockchain.IsHalted(),
			"latest_block_height": height,
			"latest_block_hash":   lastHash,
			"latest_block_time":   lastTime,
			"total_supply":        token.TotalSupply().String(),
			"total_minted":        token.TotalMinted().String(),
			"total_burned":        token.TotalBurned().String(),
			"transfer_fee_bps":    token.TransferFeeBps(),
			"max_transfer":        token.MaxTransferAmount().String(),
		},
	})
}
