package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nurpe/negotiations-service/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	Role           string `json:"role"`
	OrganizationID *int64 `json:"organization_id,omitempty"`
	DepartmentID   *int64 `json:"department_id,omitempty"`
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

// Parse validates an access token and returns the principal it carries.
func (p *Parser) Parse(tokenString string) (model.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return p.secret, nil
	})
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return model.Principal{}, ErrInvalidToken
	}

	return model.Principal{
		UserID:         claims.Subject,
		Email:          claims.Email,
		FullName:       claims.FullName,
		Role:           model.ParseRole(claims.Role),
		OrganizationID: claims.OrganizationID,
		DepartmentID:   claims.DepartmentID,
	}, nil
}
