package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const (
	apiKeyPrefix  = "biz_"
	apiKeyLength  = 32
	apiKeyCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var apiKeyPattern = regexp.MustCompile(`^biz_[A-Za-z0-9]{32}$`)

// ValidAPIKeyFormat reports whether key looks like a platform API key.
// It does not check that the key exists.
func ValidAPIKeyFormat(key string) bool {
	return apiKeyPattern.MatchString(key)
}

// GenerateAPIKey mints a random key in the biz_<32 alphanumerics> format.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, apiKeyLength)
	max := big.NewInt(int64(len(apiKeyCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate api key: %w", err)
		}
		buf[i] = apiKeyCharset[n.Int64()]
	}
	return apiKeyPrefix + string(buf), nil
}
