package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// TicketService issues signed presence tickets. A reconnecting client
// presents its ticket to keep the participant id it had before the drop.
type TicketService struct {
	secret string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TicketClaims is what a verified ticket vouches for.
type TicketClaims struct {
	MatchID       string
	ParticipantID string
	Seat          int
}

var ErrInvalidTicket = errors.New("invalid presence ticket")

func NewTicketService(secret, issuer string, ttl time.Duration) *TicketService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TicketService{secret: secret, issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a ticket binding participantID and seat to matchID.
func (s *TicketService) Issue(matchID, participantID string, seat int) (string, error) {
	if s == nil {
		return "", fmt.Errorf("ticket service is nil")
	}
	if matchID == "" || participantID == "" {
		return "", fmt.Errorf("match and participant are required")
	}
	if s.secret == "" {
		return "", fmt.Errorf("ticket secret is not configured")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  participantID,
		"mid":  matchID,
		"seat": seat,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify checks signature, expiry, issuer and that the ticket belongs to matchID.
func (s *TicketService) Verify(tokenString, matchID string) (TicketClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return TicketClaims{}, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return TicketClaims{}, ErrInvalidTicket
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return TicketClaims{}, fmt.Errorf("%w: issuer", ErrInvalidTicket)
	}
	if mid, _ := claims["mid"].(string); mid != matchID {
		return TicketClaims{}, fmt.Errorf("%w: wrong match", ErrInvalidTicket)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return TicketClaims{}, fmt.Errorf("%w: missing subject", ErrInvalidTicket)
	}
	seat, _ := claims["seat"].(float64)
	return TicketClaims{MatchID: matchID, ParticipantID: sub, Seat: int(seat)}, nil
}
