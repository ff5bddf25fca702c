package sensor

import "encoding/hex"

// CardID is the hex-encoded UID of a proximity card. Two reads of the same
// physical card yield equal CardIDs for as long as the card is readable.
type CardID string

// IDFromUID encodes raw UID bytes from the reader into a CardID.
func IDFromUID(uid []byte) CardID {
	return CardID(hex.EncodeToString(uid))
}

// Sensor is a card reader polled once per control cycle.
type Sensor interface {
	// PollOnce attempts a single card detection. It returns the card's ID
	// and true when a card is in front of the reader, and false when none
	// is. A non-nil error indicates a transient reader failure; callers
	// should treat it the same as an empty poll.
	PollOnce() (CardID, bool, error)

	// Close releases the reader.
	Close() error
}
