// Package avatar derives the default profile picture for a new account.
package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

const gravatarBase = "https://www.gravatar.com/avatar/"

// Gravatar returns the Gravatar URL for email: 200px, rated PG, falling
// back to the "mystery person" silhouette when the address has no image.
//
// Gravatar keys images by the MD5 of the trimmed, lowercased address. MD5
// is Gravatar's choice, it is not used for anything security related here.
func Gravatar(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))

	q := url.Values{}
	q.Set("s", "200")
	q.Set("r", "pg")
	q.Set("d", "mm")

	return gravatarBase + hex.EncodeToString(sum[:]) + "?" + q.Encode()
}
