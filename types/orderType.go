package types

type Side string

type Direction string
type OrderType string

type OrderStatus string

const (
	OrderActive   OrderStatus = "ACTIVE"
	OrderExecuted OrderStatus = "EXECUTED"
	OrderCanceled OrderStatus = "CANCELED"

	SideTypeBuy  Side = "buy"
	SideTypeSell Side = "sell"

	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"

	TypeMarket OrderType = "MARKET"
	TypeLimit  OrderType = "LIMIT"
	TypeStop   OrderType = "STOP"
)

func (s Side) Opposite() Side {
	if s == SideTypeBuy {
		return SideTypeSell
	}
	return SideTypeBuy
}
