package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/estimator/internal/config"
)

// MaxRequestAge is how far a request timestamp may drift from the local
// clock before the request is treated as a replay.
const MaxRequestAge = 5 * time.Minute

const signatureVersion = "v0"

// Verifier checks the X-Slack-Signature of inbound requests.
type Verifier struct {
	secret string
	now    func() time.Time
	logger *slog.Logger
}

func NewVerifier(signingSecret string, logger *slog.Logger) *Verifier {
	return &Verifier{secret: signingSecret, now: time.Now, logger: logger}
}

// Verify reports whether signature is the HMAC Slack would have produced for
// body at timestamp. It never errors: any malformed input is a rejection.
func (v *Verifier) Verify(body []byte, timestamp, signature string) bool {
	if config.IsPlaceholder(v.secret) {
		v.logger.Error("slack signing secret is not configured")
		return false
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil {
		v.logger.Warn("slack request timestamp is malformed", "timestamp", timestamp)
		return false
	}

	now, window := v.now().Unix(), int64(MaxRequestAge/time.Second)
	if ts < now-window || ts > now+window {
		v.logger.Warn("slack request timestamp outside replay window", "timestamp", ts, "now", now)
		return false
	}

	expected := Sign(v.secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the v0 signature for body at timestamp.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	mac.Write(body)
	return signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
}
