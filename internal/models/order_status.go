package models

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderRejected  OrderStatus = "rejected"
	OrderPacking   OrderStatus = "packing"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
)

// orderTransitions is the fulfilment path a seller walks an order through.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderRejected},
	OrderConfirmed: {OrderPacking},
	OrderPacking:   {OrderShipped},
	OrderShipped:   {OrderDelivered},
	OrderRejected:  nil,
	OrderDelivered: nil,
}

// IsUpdateTarget reports whether a seller may set this status at all.
// pending is only ever assigned at creation.
func (s OrderStatus) IsUpdateTarget() bool {
	switch s {
	case OrderConfirmed, OrderRejected, OrderPacking, OrderShipped, OrderDelivered:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	next, ok := orderTransitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo reports whether next directly follows s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range orderTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}
