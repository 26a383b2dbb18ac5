package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/luminaworld/lumina-go-node/core/types"
)

// parseAddress validates the prefixed hex form before conversion, since
// types.HexToAddress silently zero-fills malformed input
func parseAddress(s string) (types.Address, bool) {
	b := types.FromHex(s, "Lx")
	if len(b) != types.AddressLength {
		return types.Address{}, false
	}
	return types.BytesToAddress(b), true
}

// Balance returns the balance and nonce of an account
func (s *Service) Balance(c *gin.Context) {
	address, ok := parseAddress(c.Param("address"))
	if !ok {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Log: "invalid address"})
		return
	}

	ledger := s.blockchain.CheckState().Ledger()

	c.JSON(http.StatusOK, Response{
		Code: 0,
		Result: gin.H{
			"address": address.String(),
			"balance": ledger.GetBalance(address).String(),
			"nonce":   ledger.GetNonce(address),
		},
	})
}

// Nonce returns the nonce the next transaction of the account must carry
func (s *Service) Nonce(c *gin.Context) {
	address, ok := parseAddress(c.Param("address"))
	if !ok {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Log: "invalid address"})
		return
	}

	c.JSON(http.StatusOK, Response{
		Code: 0,
		Result: gin.H{
			"address": address.String(),
			"nonce":   s.blockchain.CheckState().Ledger().NextNonce(address),
		},
	})
}
