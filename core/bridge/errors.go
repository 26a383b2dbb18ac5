package bridge

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/luminaworld/lumina-go-node/core/code"
)

// DailyLimitError is returned when an outbound transfer would push the
// current UTC-day volume over the configured limit
type DailyLimitError struct {
	Value  *big.Int
	Used   *big.Int
	Limit  *big.Int
	Window string
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("daily limit exceeded: %s used of %s in window %s, wanted %s more",
		e.Used, e.Limit, e.Window, e.Value)
}

// Code returns the response code
func (e *DailyLimitError) Code() uint32 { return code.DailyLimitExceeded }

// Info returns the structured payload
func (e *DailyLimitError) Info() string {
	return encode(code.NewDailyLimitExceeded(e.Value.String(), e.Used.String(), e.Limit.String(), e.Window))
}

// OutOfBoundsError is returned when an outbound transfer falls outside the
// configured min/max bounds
type OutOfBoundsError struct {
	Value *big.Int
	Min   *big.Int
	Max   *big.Int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("transfer of %s outside bounds [%s, %s]", e.Value, e.Min, e.Max)
}

// Code returns the response code
func (e *OutOfBoundsError) Code() uint32 { return code.TransferOutOfBounds }

// Info returns the structured payload
func (e *OutOfBoundsError) Info() string {
	return encode(code.NewTransferOutOfBounds(e.Value.String(), e.Min.String(), e.Max.String()))
}

// UnknownTransferError is returned when a confirmation names a transfer id
// that was never initiated
type UnknownTransferError struct {
	ID string
}

func (e *UnknownTransferError) Error() string {
	return fmt.Sprintf("unknown transfer %s", e.ID)
}

// Code returns the response code
func (e *UnknownTransferError) Code() uint32 { return code.UnknownTransfer }

// Info returns the structured payload
func (e *UnknownTransferError) Info() string { return "" }

// AlreadyResolvedError is returned when a confirmation targets a transfer
// already in a terminal state
type AlreadyResolvedError struct {
	ID     string
	Status string
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("transfer %s already resolved as %s", e.ID, e.Status)
}

// Code returns the response code
func (e *AlreadyResolvedError) Code() uint32 { return code.TransferAlreadyResolved }

// Info returns the structured payload
func (e *AlreadyResolvedError) Info() string { return "" }

func encode(data interface{}) string {
	b, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	return string(b)
}
