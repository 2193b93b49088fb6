package model

// User mirrors the public profile of an identity issued by the external
// authentication provider, as stored in the `users` table. Rows are
// upserted from verified token claims on authenticated requests; this
// service never creates identities of its own. The json tags shape how
// author/host information is attached to event and review responses.
//
// Fields:
//  ID    – stable identifier assigned by the identity provider.
//  Name  – display name, if the provider shared one.
//  Image – avatar URL, if the provider shared one.
type User struct {
	ID    string  `json:"id"`    // users.id
	Name  *string `json:"name"`  // users.name (nullable)
	Image *string `json:"image"` // users.image (nullable)
}

// Identity carries the verified caller information extracted from a
// bearer token by the authentication middleware. Name and Image are
// optional claims; ID is always present for authenticated callers.
type Identity struct {
	ID    string  // subject claim
	Name  *string // name claim, when present
	Image *string // picture claim, when present
}

// User converts the identity into a User row suitable for upserting
// into the local profile mirror.
func (i Identity) User() User {
	return User{ID: i.ID, Name: i.Name, Image: i.Image}
}
