package store

import (
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// DuplicateKeyCode is the server error code for a unique index violation.
const DuplicateKeyCode = 11000

// DuplicateKey reports whether err is a unique index violation and, when the
// server message names it, which index was violated.
func DuplicateKey(err error) (index string, ok bool) {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return "", false
	}
	msg := err.Error()
	i := strings.Index(msg, "index: ")
	if i < 0 {
		return "", true
	}
	rest := msg[i+len("index: "):]
	if j := strings.IndexByte(rest, ' '); j >= 0 {
		rest = rest[:j]
	}
	return rest, true
}

// NewDuplicateKeyError builds the write exception a server returns for a
// unique index violation.
func NewDuplicateKeyError(collection, index, key string) error {
	return mongo.WriteException{
		WriteErrors: []mongo.WriteError{{
			Index:   0,
			Code:    DuplicateKeyCode,
			Message: "E11000 duplicate key error collection: " + collection + " index: " + index + " dup key: " + key,
		}},
	}
}
