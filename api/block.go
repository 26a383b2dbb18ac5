package api

import (
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/luminaworld/lumina-go-node/core/mempool"
)

// Block returns a committed block by height
func (s *Service) Block(c *gin.Context) {
	height, err := strconv.ParseUint(c.Param("height"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Log: "invalid block height"})
		return
	}

	block, err := s.blockchain.GetBlock(height)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Log: err.Error()})
		return
	}
	if block == nil {
		c.JSON(http.StatusNotFound, Response{Code: http.StatusNotFound, Log: "block not found"})
		return
	}

	txs := make([]string, 0, len(block.Txs))
	for _, tx := range block.Txs {
		key := mempool.TxKey(tx)
		txs = append(txs, hex.EncodeToString(key[:]))
	}

	c.JSON(http.StatusOK, Response{
		Code: 0,
		Result: gin.H{
			"height":      block.Height,
			"hash":        block.Hash().String(),
			"parent_hash": block.ParentHash.String(),
			"timestamp":   block.Timestamp,
			"producer":    block.Producer.String(),
			"state_root":  hex.EncodeToString(block.StateRoot),
			"tx_count":    len(block.Txs),
			"txs":         txs,
		},
	})
}
