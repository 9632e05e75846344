package events

// Topics emitted by the invoicing service. Each event carries an Invoice
// snapshot taken right after the write that caused it.
const (
	TopicInvoiceCreated     = "invoice.created"
	TopicInvoiceUpdated     = "invoice.updated"
	TopicInvoiceSent        = "invoice.sent"
	TopicInvoicePaid        = "invoice.paid"
	TopicInvoiceVoided      = "invoice.voided"
	TopicInvoiceDeleted     = "invoice.deleted"
	TopicPaymentLinkCreated = "payment_link.created"
)

var knownTopics = map[string]struct{}{
	TopicInvoiceCreated:     {},
	TopicInvoiceUpdated:     {},
	TopicInvoiceSent:        {},
	TopicInvoicePaid:        {},
	TopicInvoiceVoided:      {},
	TopicInvoiceDeleted:     {},
	TopicPaymentLinkCreated: {},
}

// IsKnownTopic reports whether topic is emitted by this service.
func IsKnownTopic(topic string) bool {
	_, ok := knownTopics[topic]
	return ok
}
