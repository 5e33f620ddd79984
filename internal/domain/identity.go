package domain

// Identity is a verified caller as yielded by the identity provider.
type Identity struct {
	PlayerID string
	Email    string
}

// FoundBy tags how a settlement resolved the canonical player record.
type FoundBy string

const (
	FoundByPrimary FoundBy = "primary"
	FoundByEmail   FoundBy = "email"
	FoundByCreated FoundBy = "created"
)

// Resolution is the outcome of identity resolution. CanonicalID is the key
// used for every write that follows; it differs from the presented
// identity when an email match redirected it to a legacy record.
type Resolution struct {
	FoundBy     FoundBy
	CanonicalID string
	Player      *PlayerRating
}
