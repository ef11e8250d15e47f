package domain

// Metadata is an opaque structured payload stored alongside ledger entries and charge records
// (token counts, seconds, model identifiers, provider names).
type Metadata map[string]any

// Clone returns a shallow copy so callers can add keys without mutating the original.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}
