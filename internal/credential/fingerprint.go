package credential

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"credentia/pkg/domain"
)

// fingerprint binds a credential to its issuance facts with a deterministic,
// collision-resistant digest. Auditors can recompute it independently from
// the stored fields.
func fingerprint(student domain.Address, courseID uint64, skill string, competency uint32, score uint64, issuedAt time.Time) string {
	h := sha256.New()
	h.Write([]byte(student))
	h.Write([]byte{0})
	_ = binary.Write(h, binary.BigEndian, courseID)
	h.Write([]byte(skill))
	h.Write([]byte{0})
	_ = binary.Write(h, binary.BigEndian, competency)
	_ = binary.Write(h, binary.BigEndian, score)
	_ = binary.Write(h, binary.BigEndian, issuedAt.UnixNano())
	return hex.EncodeToString(h.Sum(nil))
}
