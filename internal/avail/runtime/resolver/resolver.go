// Package resolver implements the §6 ModuleNameResolver collaborator, in
// two flavors: a local filesystem resolver and a remote-registry
// resolver authenticated with a bearer JWT, in the same style as a JWT
// minting/validation and bcrypt credential-hashing layer.
package resolver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrModuleNotFound is returned by Resolve when no root (or the remote
// registry) has a module by the given name.
var ErrModuleNotFound = errors.New("module not found")

// Local resolves a module name against a fixed list of filesystem roots
// (§6): the first root containing a file matching the module name wins.
type Local struct {
	Roots []string
}

// Resolve returns the absolute path of the source file for name, or
// ErrModuleNotFound.
func (l Local) Resolve(name string) (string, error) {
	for _, root := range l.Roots {
		candidate := filepath.Join(root, filepath.FromSlash(name)+".avail")
		if _, err := os.Stat(candidate); err == nil {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				return "", fmt.Errorf("resolve %q: %w", name, err)
			}
			return abs, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrModuleNotFound, name)
}

// Credentials hashes and verifies the password used to authenticate
// against a remote module registry, at a bcrypt cost factor of 14.
type Credentials struct{}

// Hash bcrypt-hashes a plaintext registry password for storage.
func (Credentials) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("password too long to hash: %w", err)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Verify reports whether password matches the stored bcrypt hash.
func (Credentials) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Remote resolves a module name against a network registry (§6 "an
// alternative remote implementation"), authenticating with a bearer JWT
// minted from the configured secret.
type Remote struct {
	BaseURL string
	Secret  []byte
	Issuer  string
	TTL     time.Duration

	HTTPClient *http.Client
}

// mintToken builds a short-lived HS512 JWT the way server/token.go mints
// session tokens for tqs: a MapClaims payload signed with the shared
// secret, validated on the far end with the same algorithm pinned.
func (r Remote) mintToken(subject string) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"iss": r.Issuer,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(r.TTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := tok.SignedString(r.Secret)
	if err != nil {
		return "", fmt.Errorf("sign registry token: %w", err)
	}
	return signed, nil
}

// Resolve fetches the module's source from the registry over HTTP,
// presenting a freshly minted bearer token.
func (r Remote) Resolve(name string) (string, error) {
	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	tok, err := r.mintToken("availc")
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(r.BaseURL, "/") + "/modules/" + name
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build registry request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch module %q from registry: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("registry returned status %d for %q", resp.StatusCode, name)
	}

	tmp, err := os.CreateTemp("", "avail-module-*.avail")
	if err != nil {
		return "", fmt.Errorf("create temp file for %q: %w", name, err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return "", fmt.Errorf("download module %q: %w", name, err)
	}
	return tmp.Name(), nil
}

// validateToken parses and validates a bearer token against secret,
// pinning the signing method the way AuthHandler does in server/token.go.
func validateToken(tokenString string, secret []byte, issuer string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(issuer), jwt.WithLeeway(time.Minute))
	if err != nil {
		return nil, fmt.Errorf("validate registry token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid registry token")
	}
	return claims, nil
}
