package models

import "time"

// SourceHandle identifies the inbound message a batch came from. Only the
// mail source interprets it.
type SourceHandle string

// WorkBatch is everything one inbound message asks for.
type WorkBatch struct {
	Records      *RecordStore
	Requester    string
	SourceHandle SourceHandle
}

// InboundMessage is a message waiting in the source folder.
type InboundMessage struct {
	Handle     SourceHandle `json:"id"`
	Subject    string       `json:"subject"`
	Body       string       `json:"body"`
	ReceivedAt time.Time    `json:"receivedDateTime,omitempty"`
}

// Attachment is a file attached to an inbound message.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"-"`
}
