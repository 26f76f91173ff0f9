package policy

// ShouldReuse reports whether an upload to messageID with newHash can bind to
// the bytes of an earlier record on the same message. existingHash is "" when
// the message has no matching record. Reuse never crosses messages.
func ShouldReuse(messageID, newHash, existingHash string) bool {
	return messageID != "" && existingHash != "" && newHash == existingHash
}
