package domain

// Order statuses form a strict linear lifecycle; the only valid move is to
// the immediate next state. Returns are looser: sellers may skip ahead, and
// REJECTED is reachable early on. Both machines are adjacency tables so the
// difference stays a data difference.

type OrderStatus string

const (
	OrderPlaced     OrderStatus = "ORDER_PLACED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
)

func (s OrderStatus) String() string { return string(s) }

var orderNext = map[OrderStatus][]OrderStatus{
	OrderPlaced:     {OrderProcessing},
	OrderProcessing: {OrderShipped},
	OrderShipped:    {OrderDelivered},
	OrderDelivered:  {},
}

func ValidOrderStatus(s OrderStatus) bool {
	_, ok := orderNext[s]
	return ok
}

func CanTransitionOrder(from, to OrderStatus) bool {
	for _, next := range orderNext[from] {
		if next == to {
			return true
		}
	}
	return false
}

type ReturnStatus string

const (
	ReturnRequested ReturnStatus = "REQUESTED"
	ReturnApproved  ReturnStatus = "APPROVED"
	ReturnPickedUp  ReturnStatus = "PICKED_UP"
	ReturnRefunded  ReturnStatus = "REFUNDED"
	ReturnRejected  ReturnStatus = "REJECTED"
)

func (s ReturnStatus) String() string { return string(s) }

var returnNext = map[ReturnStatus][]ReturnStatus{
	ReturnRequested: {ReturnApproved, ReturnRejected, ReturnPickedUp, ReturnRefunded},
	ReturnApproved:  {ReturnPickedUp, ReturnRefunded, ReturnRejected},
	ReturnPickedUp:  {ReturnRefunded},
	ReturnRefunded:  {},
	ReturnRejected:  {},
}

func ValidReturnStatus(s ReturnStatus) bool {
	_, ok := returnNext[s]
	return ok
}

func CanTransitionReturn(from, to ReturnStatus) bool {
	if from == to {
		// same-status updates are accepted upstream as no-ops
		return true
	}
	for _, next := range returnNext[from] {
		if next == to {
			return true
		}
	}
	return false
}
