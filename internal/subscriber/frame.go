package subscriber

// The wire contract wraps every push in a JSON array holding exactly one
// message, and greets every new subscription with an empty array.

// ConnectFrame is the greeting pushed right after a subscription opens.
func ConnectFrame() []byte {
	return []byte("[]")
}

// Frame wraps one encoded message for the wire.
func Frame(message []byte) []byte {
	frame := make([]byte, 0, len(message)+2)
	frame = append(frame, '[')
	frame = append(frame, message...)
	frame = append(frame, ']')
	return frame
}
