package api

import (
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/luminaworld/lumina-go-node/core/mempool"
	"github.com/luminaworld/lumina-go-node/core/types"
)

type sendTransactionRequest struct {
	Tx string `json:"tx" binding:"required"`
}

// SendTransaction decodes a signed transaction, runs it through check
// mode and queues it into the pool
func (s *Service) SendTransaction(c *gin.Context) {
	var req sendTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Log: err.Error()})
		return
	}

	rawTx := types.FromHex(req.Tx, "")
	if len(rawTx) == 0 {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Log: "invalid tx hex"})
		return
	}

	response := s.blockchain.SubmitTransaction(rawTx)
	if response.Code != 0 {
		c.JSON(http.StatusBadRequest, Response{
			Code:   response.Code,
			Log:    response.Log,
			Result: gin.H{"info": response.Info},
		})
		return
	}

	key := mempool.TxKey(rawTx)
	c.JSON(http.StatusOK, Response{
		Code: 0,
		Result: gin.H{
			"hash": hex.EncodeToString(key[:]),
			"tags": response.Tags,
		},
	})
}
