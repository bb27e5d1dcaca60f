// internal/auth/token.go
//
// Seat tokens. A token binds (room code, seat index, session id) so a
// dropped connection can reclaim its chair; the session id rotates on
// every bind, so an old token dies the moment the seat is re-issued.
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL is how long a seat token stays reclaimable (0 = forever).
	tokenTTL time.Duration
)

// Init generates a fresh ed25519 key pair at runtime. Tokens do not
// survive a server restart, which is fine: neither do rooms.
func Init() error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return parseTokenTTL()
}

// InitFromPath reads a persistent ed25519 key pair from disk, for
// multi-process deployments behind one load balancer.
func InitFromPath(privatePath, publicPath string) error {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}
	privateKey = ed25519.PrivateKey(privateKeyData)
	publicKey = ed25519.PublicKey(publicKeyData)
	return parseTokenTTL()
}

func parseTokenTTL() error {
	raw := os.Getenv("SEAT_TOKEN_TTL")
	if raw == "" || raw == "never" || raw == "0" {
		tokenTTL = 0
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("failed to parse SEAT_TOKEN_TTL: %w", err)
	}
	tokenTTL = d
	return nil
}

// SeatClaims is what a seat token carries.
type SeatClaims struct {
	RoomCode  string
	Seat      int
	SessionID uuid.UUID
}

// CreateSeatToken signs a token for one bound seat.
func CreateSeatToken(c SeatClaims) (string, error) {
	claims := jwt.MapClaims{
		"room": c.RoomCode,
		"seat": c.Seat,
		"sid":  c.SessionID.String(),
	}
	if tokenTTL > 0 {
		claims["exp"] = time.Now().Add(tokenTTL).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// VerifySeatToken parses and validates a seat token.
func VerifySeatToken(tokenString string) (SeatClaims, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return SeatClaims{}, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return SeatClaims{}, fmt.Errorf("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return SeatClaims{}, fmt.Errorf("invalid jwt claims")
	}

	room, ok := claims["room"].(string)
	if !ok {
		return SeatClaims{}, fmt.Errorf("missing room in jwt")
	}
	seatF, ok := claims["seat"].(float64)
	if !ok {
		return SeatClaims{}, fmt.Errorf("missing seat in jwt")
	}
	sidRaw, ok := claims["sid"].(string)
	if !ok {
		return SeatClaims{}, fmt.Errorf("missing sid in jwt")
	}
	sid, err := uuid.Parse(sidRaw)
	if err != nil {
		return SeatClaims{}, fmt.Errorf("malformed sid in jwt: %w", err)
	}
	return SeatClaims{RoomCode: room, Seat: int(seatF), SessionID: sid}, nil
}
