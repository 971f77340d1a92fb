package catalog

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/kailas-cloud/bookrec/internal/domain/book"
)

// Fingerprint hashes the composite version and every composite text in load
// order. Any change to the catalog, its order, or the text layout changes it.
func Fingerprint(records []book.Record) string {
	h := sha256.New()
	h.Write([]byte(book.CompositeVersion))
	for i := range records {
		h.Write([]byte{0})
		h.Write([]byte(records[i].CompositeText()))
	}
	return hex.EncodeToString(h.Sum(nil))
}
