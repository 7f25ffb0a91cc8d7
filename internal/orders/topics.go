package orders

import "strconv"

// TopicOrderEvents carries every order lifecycle event.
const TopicOrderEvents = "grocery.order.events"

// Partition key = order id, so the events of one order keep their order.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
