package order

import "errors"

// validation
var (
	ErrUnsupportedInterface = errors.New("Market: tokenContract does not support ERC721 interface")
	ErrPriceZero            = errors.New("Market: Price cannot be zero")
	ErrReservePriceZero     = errors.New("Market: reservePrice cannot be zero")
	ErrDurationZero         = errors.New("Market: Duration cannot be zero")
	ErrOrderNotExist        = errors.New("Market: The order does not exist")
	ErrNotSellOrder         = errors.New("Market: Order is not a sell order")
	ErrNotAuctionOrder      = errors.New("Market: Order is not an auction order")
	ErrInvalidCurrency      = errors.New("Market: Invalid currency")
)

// authorization
var (
	ErrNotOwnerNorApproved = errors.New("Market: Caller must be approved or owner for tokenId")
	ErrNotOrderCreator     = errors.New("Market: Only can be called by order creator")
)

// auction timing
var (
	ErrAuctionInProgress = errors.New("Market: Auction in progress")
	ErrAuctionNotStarted = errors.New("Market: Auction not started")
	ErrAuctionOver       = errors.New("Market: Auction is over")
)

// funds
var (
	ErrBidBelowReserve     = errors.New("Market: The minimum bid must match the reserve price")
	ErrAlreadyHighestBid   = errors.New("Market: You already at highest bid")
	ErrBidTooLow           = errors.New("Market: Bid price to low")
	ErrSentValueMismatch   = errors.New("Market: Sent ETH value does not match the specified price")
	ErrUnexpectedSentValue = errors.New("Market: Sent ETH value must be zero for token currency")
)

// ErrReentrantCall rejects a market operation issued from inside another one
var ErrReentrantCall = errors.New("ReentrancyGuard: reentrant call")

// ErrEngineBusy is returned when another operation held the engine for the whole lock wait
var ErrEngineBusy = errors.New("Market: engine busy")

// IsValidationError reports whether err is a rejected precondition, as opposed to an infrastructure failure
func IsValidationError(err error) bool {
	for _, e := range []error{
		ErrUnsupportedInterface, ErrPriceZero, ErrReservePriceZero, ErrDurationZero,
		ErrNotSellOrder, ErrNotAuctionOrder, ErrInvalidCurrency,
		ErrAuctionInProgress, ErrAuctionNotStarted, ErrAuctionOver,
		ErrBidBelowReserve, ErrAlreadyHighestBid, ErrBidTooLow,
		ErrSentValueMismatch, ErrUnexpectedSentValue, ErrReentrantCall,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// IsAuthorizationError reports whether err is a caller permission failure
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrNotOwnerNorApproved) || errors.Is(err, ErrNotOrderCreator)
}
