package models

import "fmt"

// RecordID is the fixed id carried by every generated echo record.
const RecordID = 42

// DefaultSource identifies this application in generated records.
const DefaultSource = "service"

// Parent is the nested mapping inside an echo record.
type Parent struct {
	Child string `json:"child" codec:"child"`
}

// EchoRecord is the fixed test payload sent to the target endpoint.
// Field order matters for the textual wire form: id, source, parent, message.
type EchoRecord struct {
	ID      int64  `json:"id" codec:"id"`
	Source  string `json:"source" codec:"source"`
	Parent  Parent `json:"parent" codec:"parent"`
	Message string `json:"message" codec:"message"`
}

// NewEchoRecord builds the record for one loop index.
func NewEchoRecord(source string, index int) EchoRecord {
	if source == "" {
		source = DefaultSource
	}
	return EchoRecord{
		ID:      RecordID,
		Source:  source,
		Parent:  Parent{Child: "item"},
		Message: fmt.Sprintf("le message - %d", index),
	}
}
