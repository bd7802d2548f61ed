package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/dining-quiz/backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/dining-quiz/backend/internal/common/errors"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/sessionauth"
)

type Token struct {
	Value     string
	JTI       string
	ExpiresAt time.Time
}

// TokenIssuer mints HS256 session tokens carrying the user id and username.
// Nothing is stored per session; only revoked jtis are remembered.
type TokenIssuer struct {
	secret      []byte
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
	ttl         time.Duration
	revoked     *RevokedTokenCache
	parser      *jwt.Parser
}

func NewTokenIssuer(
	secret string,
	idGenerator commoncrypto.IDGenerator,
	ttl time.Duration,
	clock clock.Clock,
	revoked *RevokedTokenCache,
) *TokenIssuer {
	return &TokenIssuer{
		secret:      []byte(secret),
		idGenerator: idGenerator,
		clock:       clock,
		ttl:         ttl,
		revoked:     revoked,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithStrictDecoding(),
			jwt.WithTimeFunc(clock.Now),
		),
	}
}

func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}

func (ti *TokenIssuer) Issue(identity sessionauth.Identity) (Token, error) {
	jti, err := ti.idGenerator.NewID()
	if err != nil {
		return Token{}, fmt.Errorf("failed to generate token id: %w", err)
	}

	now := ti.clock.Now()
	expiresAt := now.Add(ti.ttl)
	claims := jwt.MapClaims{
		"sub": strconv.Itoa(identity.UserID),
		"usr": identity.Username,
		"jti": jti,
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	value, err := t.SignedString(ti.secret)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	incrementSessionsIssued()
	return Token{
		Value:     value,
		JTI:       jti,
		ExpiresAt: time.Unix(expiresAt.Unix(), 0),
	}, nil
}

// Resolve returns the identity a token was issued for. Any defect, including
// a revoked jti, yields ErrInvalidToken.
func (ti *TokenIssuer) Resolve(_ context.Context, value string) (sessionauth.Claims, error) {
	incrementTokenValidations()

	claims, err := ti.parse(value)
	if err != nil {
		incrementTokenValidationsFailed()
		return sessionauth.Claims{}, commonerrors.ErrInvalidToken.WithCause(err)
	}

	if ti.revoked != nil && ti.revoked.IsRevoked(claims.JTI) {
		incrementTokenValidationsFailed()
		return sessionauth.Claims{}, commonerrors.ErrInvalidToken.WithCause(errors.New("token revoked"))
	}

	return claims, nil
}

// Revoke makes a still-valid token unusable for the rest of its life.
func (ti *TokenIssuer) Revoke(ctx context.Context, value string) (sessionauth.Claims, error) {
	claims, err := ti.Resolve(ctx, value)
	if err != nil {
		return sessionauth.Claims{}, err
	}
	if ti.revoked != nil {
		ti.revoked.Revoke(claims.JTI, claims.ExpiresAt)
	}
	incrementSessionsRevoked()
	return claims, nil
}

func (ti *TokenIssuer) parse(value string) (sessionauth.Claims, error) {
	parsed, err := ti.parser.Parse(value, func(token *jwt.Token) (any, error) {
		return ti.secret, nil
	})
	if err != nil {
		return sessionauth.Claims{}, err
	}
	if !parsed.Valid {
		return sessionauth.Claims{}, errors.New("token is not valid")
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return sessionauth.Claims{}, errors.New("invalid claims type")
	}

	sub, _ := mapClaims["sub"].(string)
	username, _ := mapClaims["usr"].(string)
	jti, _ := mapClaims["jti"].(string)
	if sub == "" || username == "" || jti == "" {
		return sessionauth.Claims{}, errors.New("missing sub, usr or jti claims")
	}

	userID, err := strconv.Atoi(sub)
	if err != nil || userID < 0 {
		return sessionauth.Claims{}, fmt.Errorf("invalid sub claim %q", sub)
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return sessionauth.Claims{}, errors.New("missing exp claim")
	}

	return sessionauth.Claims{
		Identity: sessionauth.Identity{
			UserID:   userID,
			Username: username,
		},
		JTI:       jti,
		ExpiresAt: exp.Time,
	}, nil
}
