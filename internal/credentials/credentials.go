package credentials

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

const (
	serviceAccountType = "service_account"
	defaultTokenURI    = "https://oauth2.googleapis.com/token"
)

// ErrInvalidKey indicates the private key could not be repaired into a
// parseable PEM block.
var ErrInvalidKey = errors.New("invalid private key")

var pemMarker = regexp.MustCompile(`-----\s*(BEGIN|END)\s+([A-Z ]+?)\s*-----`)

// ServiceAccount mirrors the Google service-account key file.
type ServiceAccount struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id,omitempty"`
	PrivateKeyID            string `json:"private_key_id,omitempty"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id,omitempty"`
	AuthURI                 string `json:"auth_uri,omitempty"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url,omitempty"`
	ClientX509CertURL       string `json:"client_x509_cert_url,omitempty"`
	UniverseDomain          string `json:"universe_domain,omitempty"`
}

// JSON encodes the account in key-file form.
func (sa *ServiceAccount) JSON() ([]byte, error) {
	return json.Marshal(sa)
}

// Load picks the secret bundle when present and falls back to the key file.
// Either way the result goes through Normalize.
func Load(bundle, path string) (*ServiceAccount, error) {
	if strings.TrimSpace(bundle) != "" {
		sa, err := Normalize([]byte(bundle))
		if err != nil {
			return nil, fmt.Errorf("service account bundle: %w", err)
		}
		return sa, nil
	}

	if path == "" {
		return nil, errors.New("no service account bundle or credentials file configured")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file %s: %w", path, err)
	}

	sa, err := Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("credentials file %s: %w", path, err)
	}
	return sa, nil
}

// Normalize decodes a service-account bundle (JSON, or base64-encoded JSON),
// checks the required fields and repairs the private key.
func Normalize(raw []byte) (*ServiceAccount, error) {
	data := []byte(strings.TrimSpace(string(raw)))
	if len(data) == 0 {
		return nil, errors.New("empty service account")
	}

	if data[0] != '{' {
		decoded, err := decodeBase64(string(data))
		if err != nil {
			return nil, fmt.Errorf("service account is neither json nor base64: %w", err)
		}
		data = []byte(strings.TrimSpace(string(decoded)))
	}

	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("decode service account: %w", err)
	}

	if sa.Type == "" {
		sa.Type = serviceAccountType
	}
	if sa.Type != serviceAccountType {
		return nil, fmt.Errorf("unsupported credentials type %q", sa.Type)
	}
	sa.ClientEmail = strings.TrimSpace(sa.ClientEmail)
	if sa.ClientEmail == "" {
		return nil, errors.New("client_email must be provided")
	}
	if sa.TokenURI == "" {
		sa.TokenURI = defaultTokenURI
	}

	key, err := RepairPrivateKey(sa.PrivateKey)
	if err != nil {
		return nil, err
	}
	sa.PrivateKey = key

	return &sa, nil
}

// RepairPrivateKey rebuilds a PEM private key from damaged input: escaped or
// missing line breaks, missing or mangled BEGIN/END markers and stripped
// base64 padding. The result is a canonical PEM block.
func RepairPrivateKey(key string) (string, error) {
	s := strings.TrimSpace(key)
	s = strings.Trim(s, `"'`)
	s = strings.ReplaceAll(s, `\r`, "")
	s = strings.ReplaceAll(s, `\n`, "\n")

	blockType := "PRIVATE KEY"
	if m := pemMarker.FindStringSubmatch(s); m != nil {
		blockType = strings.Join(strings.Fields(m[2]), " ")
	}

	body := pemMarker.ReplaceAllString(s, "")
	body = strings.Join(strings.Fields(body), "")
	if body == "" {
		return "", fmt.Errorf("%w: empty key material", ErrInvalidKey)
	}

	der, err := decodeBase64(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	switch {
	case isPKCS8(der):
		blockType = "PRIVATE KEY"
	case isPKCS1(der):
		blockType = "RSA PRIVATE KEY"
	default:
		return "", fmt.Errorf("%w: unrecognized %s encoding", ErrInvalidKey, strings.ToLower(blockType))
	}

	return string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})), nil
}

// decodeBase64 accepts standard or URL alphabets with or without padding.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	if len(s)%4 == 1 {
		return nil, errors.New("truncated base64 data")
	}
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}

	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.URLEncoding.DecodeString(s)
}

func isPKCS8(der []byte) bool {
	_, err := x509.ParsePKCS8PrivateKey(der)
	return err == nil
}

func isPKCS1(der []byte) bool {
	_, err := x509.ParsePKCS1PrivateKey(der)
	return err == nil
}
