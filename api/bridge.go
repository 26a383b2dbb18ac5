package api

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"
)

// bridgeError is satisfied by every structured bridge failure
type bridgeError interface {
	Error() string
	Code() uint32
	Info() string
}

func renderBridgeError(c *gin.Context, err error) {
	if structured, ok := err.(bridgeError); ok {
		var info interface{}
		if unmarshalErr := json.Unmarshal([]byte(structured.Info()), &info); unmarshalErr != nil {
			info = structured.Info()
		}
		c.JSON(http.StatusBadRequest, Response{
			Code:   structured.Code(),
			Log:    structured.Error(),
			Result: gin.H{"info": info},
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Log: err.Error()})
}

// BridgeStats returns totals over the whole transfer log
func (s *Service) BridgeStats(c *gin.Context) {
	stats, err := s.bridge.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Log: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{Code: 0, Result: stats})
}

// BridgeTransfer returns a single transfer record by its identifier
func (s *Service) BridgeTransfer(c *gin.Context) {
	transfer, err := s.bridge.GetTransfer(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Log: err.Error()})
		return
	}
	if transfer == nil {
		c.JSON(http.StatusNotFound, Response{Code: http.StatusNotFound, Log: "transfer not found"})
		return
	}

	c.JSON(http.StatusOK, Response{
		Code: 0,
		Result: gin.H{
			"id":               transfer.ID,
			"direction":        transfer.Direction,
			"external_tx_hash": transfer.ExternalTxHash,
			"native_address":   transfer.NativeAddress.String(),
			"external_address": transfer.ExternalAddress,
			"amount":           transfer.Amount,
			"fee":              transfer.Fee,
			"status":           transfer.Status,
			"created_at":       transfer.CreatedAt,
			"confirmed_at":     transfer.ConfirmedAt,
		},
	})
}

type bridgeInboundRequest struct {
	ExternalTxHash string `json:"external_tx_hash" binding:"required"`
	To             string `json:"to" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
}

// BridgeInbound credits an externally observed lock. Repeated
// confirmations of the same external hash are reported, not re-applied.
func (s *Service) BridgeInbound(c *gin.Context) {
	var req bridgeInboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Log: err.Error()})
		return
	}

	to, ok := parseAddress(req.To)
	if !ok {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Log: "invalid address"})
		return
	}

	amount, ok := big.NewInt(0).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Log: "invalid amount"})
		return
	}

	applied, err := s.bridge.ConfirmInbound(req.ExternalTxHash, to, amount)
	if err != nil {
		renderBridgeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Code: 0,
		Result: gin.H{
			"external_tx_hash": req.ExternalTxHash,
			"applied":          applied,
		},
	})
}

type bridgeOutboundResultRequest struct {
	TransferID     string `json:"transfer_id" binding:"required"`
	ExternalTxHash string `json:"external_tx_hash"`
	Success        *bool  `json:"success" binding:"required"`
}

// BridgeOutboundResult resolves a pending outbound transfer with the
// outcome observed on the external chain
func (s *Service) BridgeOutboundResult(c *gin.Context) {
	var req bridgeOutboundResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Log: err.Error()})
		return
	}

	if err := s.bridge.ConfirmOutbound(req.TransferID, req.ExternalTxHash, *req.Success); err != nil {
		renderBridgeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Code: 0,
		Result: gin.H{
			"transfer_id": req.TransferID,
			"success":     *req.Success,
		},
	})
}
