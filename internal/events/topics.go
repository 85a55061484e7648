package events

// Topics emitted by the storefront. The payload schema for each topic is
// owned by the emitting package.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderCancelled     = "order.cancelled"
	TopicOrderStatusChanged = "order.status_changed"
)
