package orders

const (
	TopicOrderCreated      = "order.created"
	TopicOrderTransitioned = "order.transitioned"
)

// Partition key = order id so every event of one order stays in order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
