package app

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// generateID produces a random identifier.
// Isolated here so the ID strategy can evolve independently.
func generateID() string {
	return uuid.NewString()
}

// stayNumber produces a human-readable stay number such as ST-260501-K7Q2MX.
func stayNumber(now time.Time) string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, 6)
	_, _ = rand.Read(b)

	var sb strings.Builder
	sb.WriteString("ST-")
	sb.WriteString(now.UTC().Format("060102"))
	sb.WriteByte('-')
	for _, v := range b {
		sb.WriteByte(alphabet[int(v)%len(alphabet)])
	}
	return sb.String()
}
