package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

/* ========================================================================
 * Gateway Auth Headers (v1)
 * ========================================================================
 * 职责: 网关签名头的签发与校验
 * 边缘网关完成登录校验后, 将用户身份注入签名头转发给本服务;
 * 本服务只信任通过 HMAC 校验的头, 不自行处理登录态.
 *
 * Headers:
 *   - X-Workshop-Auth-V: version ("1")
 *   - X-Workshop-Auth-Iss: issuer (gateway name)
 *   - X-Workshop-Auth-Ts: unix timestamp (seconds)
 *   - X-Workshop-Auth-Nonce: random nonce
 *   - X-Workshop-Auth-User: base64url(JSON claims)
 *   - X-Workshop-Auth-Sign: hex(HMAC-SHA256(secret, v|iss|ts|nonce|user))
 * ======================================================================== */

const (
	GatewayAuthVersionV1 = "1"

	HeaderAuthVersion   = "X-Workshop-Auth-V"
	HeaderAuthIssuer    = "X-Workshop-Auth-Iss"
	HeaderAuthTimestamp = "X-Workshop-Auth-Ts"
	HeaderAuthNonce     = "X-Workshop-Auth-Nonce"
	HeaderAuthUser      = "X-Workshop-Auth-User"
	HeaderAuthSignature = "X-Workshop-Auth-Sign"
)

const (
	defaultAuthMaxAge    = 5 * time.Minute
	defaultAuthClockSkew = 30 * time.Second
	authNonceSize        = 16
)

var (
	ErrAuthHeaderMissing          = errors.New("missing auth headers")
	ErrAuthHeaderInvalidVersion   = errors.New("invalid auth version")
	ErrAuthHeaderInvalidTS        = errors.New("invalid auth timestamp")
	ErrAuthHeaderMissingNonce     = errors.New("missing auth nonce")
	ErrAuthHeaderMissingUser      = errors.New("missing auth user claims")
	ErrAuthHeaderInvalidUser      = errors.New("invalid auth user claims")
	ErrAuthHeaderInvalidSign      = errors.New("invalid auth signature")
	ErrAuthHeaderExpired          = errors.New("auth header expired")
	ErrAuthHeaderNotYetValid      = errors.New("auth header timestamp in future")
	ErrAuthHeaderMissingSecret    = errors.New("auth header secret is required")
	ErrAuthHeaderIssuerNotAllowed = errors.New("auth issuer not allowed")
)

// GatewayClaims is the identity payload injected by the gateway.
// UserID travels as a string to survive JSON number precision limits.
type GatewayClaims struct {
	UserID     string `json:"user_id"`
	WorkshopID string `json:"workshop_id"`
	Email      string `json:"email,omitempty"`
}

// GatewayHeaderValues is a structured view of the signed headers.
type GatewayHeaderValues struct {
	Version   string
	Issuer    string
	Timestamp int64
	Nonce     string
	User      string
	Signature string
}

// ToMap flattens the values into header key/value pairs.
func (v GatewayHeaderValues) ToMap() map[string]string {
	headers := map[string]string{
		HeaderAuthVersion:   v.Version,
		HeaderAuthIssuer:    v.Issuer,
		HeaderAuthTimestamp: strconv.FormatInt(v.Timestamp, 10),
		HeaderAuthNonce:     v.Nonce,
		HeaderAuthSignature: v.Signature,
	}
	if v.User != "" {
		headers[HeaderAuthUser] = v.User
	}
	return headers
}

// GatewaySignerConfig configures header signing (service-to-service calls,
// test clients).
type GatewaySignerConfig struct {
	Secret  string `mapstructure:"secret" yaml:"secret"`
	Issuer  string `mapstructure:"issuer" yaml:"issuer"`
	Version string `mapstructure:"version" yaml:"version"`

	NowFunc func() time.Time `mapstructure:"-" yaml:"-"`
}

// GatewaySigner signs auth headers the way the edge gateway does.
type GatewaySigner struct {
	config  GatewaySignerConfig
	nowFunc func() time.Time
}

func NewGatewaySigner(cfg *GatewaySignerConfig) *GatewaySigner {
	if cfg == nil {
		cfg = &GatewaySignerConfig{}
	}
	config := *cfg
	if config.Version == "" {
		config.Version = GatewayAuthVersionV1
	}
	s := &GatewaySigner{config: config, nowFunc: time.Now}
	if config.NowFunc != nil {
		s.nowFunc = config.NowFunc
	}
	return s
}

// BuildHeaders signs the claims and returns the full header set.
func (s *GatewaySigner) BuildHeaders(claims *GatewayClaims) (GatewayHeaderValues, error) {
	if s.config.Secret == "" {
		return GatewayHeaderValues{}, ErrAuthHeaderMissingSecret
	}
	userValue, err := EncodeGatewayClaims(claims)
	if err != nil {
		return GatewayHeaderValues{}, err
	}
	nonce, err := generateNonce()
	if err != nil {
		return GatewayHeaderValues{}, err
	}
	issuedAt := s.nowFunc().Unix()
	sign := signGatewayHeader(s.config.Secret, s.config.Version, s.config.Issuer, issuedAt, nonce, userValue)
	return GatewayHeaderValues{
		Version:   s.config.Version,
		Issuer:    s.config.Issuer,
		Timestamp: issuedAt,
		Nonce:     nonce,
		User:      userValue,
		Signature: sign,
	}, nil
}

// GatewayVerifierConfig configures header verification.
type GatewayVerifierConfig struct {
	Enabled          bool          `mapstructure:"enabled" yaml:"enabled"`
	Secret           string        `mapstructure:"secret" yaml:"secret"`
	AllowedIssuers   []string      `mapstructure:"allowed_issuers" yaml:"allowed_issuers"`
	Version          string        `mapstructure:"version" yaml:"version"`
	MaxAge           time.Duration `mapstructure:"max_age" yaml:"max_age"`
	AllowedClockSkew time.Duration `mapstructure:"allowed_clock_skew" yaml:"allowed_clock_skew"`

	NowFunc func() time.Time `mapstructure:"-" yaml:"-"`
}

// GatewayVerifier validates signed gateway headers.
type GatewayVerifier struct {
	config  GatewayVerifierConfig
	nowFunc func() time.Time
}

func NewGatewayVerifier(cfg *GatewayVerifierConfig) *GatewayVerifier {
	if cfg == nil {
		cfg = &GatewayVerifierConfig{}
	}
	config := *cfg
	if config.Version == "" {
		config.Version = GatewayAuthVersionV1
	}
	if config.MaxAge == 0 {
		config.MaxAge = defaultAuthMaxAge
	}
	if config.AllowedClockSkew == 0 {
		config.AllowedClockSkew = defaultAuthClockSkew
	}
	v := &GatewayVerifier{config: config, nowFunc: time.Now}
	if config.NowFunc != nil {
		v.nowFunc = config.NowFunc
	}
	return v
}

// Enabled reports whether verification is active.
func (v *GatewayVerifier) Enabled() bool { return v.config.Enabled }

// Verify checks signature, freshness and issuer, and returns the claims.
func (v *GatewayVerifier) Verify(values GatewayHeaderValues) (*GatewayClaims, error) {
	if values.Version == "" || values.Issuer == "" || values.Timestamp == 0 || values.Signature == "" {
		return nil, ErrAuthHeaderMissing
	}
	if values.Version != v.config.Version {
		return nil, ErrAuthHeaderInvalidVersion
	}
	if !v.isIssuerAllowed(values.Issuer) {
		return nil, ErrAuthHeaderIssuerNotAllowed
	}
	if values.Nonce == "" {
		return nil, ErrAuthHeaderMissingNonce
	}
	if v.config.Secret == "" {
		return nil, ErrAuthHeaderMissingSecret
	}

	expected := signGatewayHeader(v.config.Secret, values.Version, values.Issuer, values.Timestamp, values.Nonce, values.User)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(values.Signature)) != 1 {
		return nil, ErrAuthHeaderInvalidSign
	}

	issuedAt := time.Unix(values.Timestamp, 0)
	now := v.nowFunc()
	if now.Sub(issuedAt) > v.config.MaxAge {
		return nil, ErrAuthHeaderExpired
	}
	if issuedAt.After(now.Add(v.config.AllowedClockSkew)) {
		return nil, ErrAuthHeaderNotYetValid
	}

	claims, err := DecodeGatewayClaims(values.User)
	if err != nil {
		return nil, ErrAuthHeaderInvalidUser
	}
	if claims == nil || claims.UserID == "" {
		return nil, ErrAuthHeaderMissingUser
	}
	return claims, nil
}

func parseGatewayHeaderValues(get func(string) string) (GatewayHeaderValues, error) {
	version := strings.TrimSpace(get(HeaderAuthVersion))
	issuer := strings.TrimSpace(get(HeaderAuthIssuer))
	stamp := strings.TrimSpace(get(HeaderAuthTimestamp))
	signature := strings.TrimSpace(get(HeaderAuthSignature))
	if version == "" || issuer == "" || stamp == "" || signature == "" {
		return GatewayHeaderValues{}, ErrAuthHeaderMissing
	}
	timestamp, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil || timestamp <= 0 {
		return GatewayHeaderValues{}, ErrAuthHeaderInvalidTS
	}
	return GatewayHeaderValues{
		Version:   version,
		Issuer:    issuer,
		Timestamp: timestamp,
		Nonce:     strings.TrimSpace(get(HeaderAuthNonce)),
		User:      strings.TrimSpace(get(HeaderAuthUser)),
		Signature: signature,
	}, nil
}

func (v *GatewayVerifier) isIssuerAllowed(issuer string) bool {
	if len(v.config.AllowedIssuers) == 0 {
		return true
	}
	for _, allowed := range v.config.AllowedIssuers {
		if issuer == allowed {
			return true
		}
	}
	return false
}

// EncodeGatewayClaims serializes claims into base64url JSON.
func EncodeGatewayClaims(claims *GatewayClaims) (string, error) {
	if claims == nil {
		return "", nil
	}
	data, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeGatewayClaims parses base64url JSON claims.
func DecodeGatewayClaims(value string) (*GatewayClaims, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, err
	}
	var claims GatewayClaims
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func signGatewayHeader(secret, version, issuer string, timestamp int64, nonce, user string) string {
	payload := strings.Join([]string{
		version,
		issuer,
		strconv.FormatInt(timestamp, 10),
		nonce,
		user,
	}, "|")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func generateNonce() (string, error) {
	buf := make([]byte, authNonceSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
