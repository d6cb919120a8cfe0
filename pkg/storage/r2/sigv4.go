package r2

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	algorithm       = "AWS4-HMAC-SHA256"
	region          = "auto"
	service         = "s3"
	unsignedPayload = "UNSIGNED-PAYLOAD"
	emptyBodyHash   = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func signingKey(secret, date string) []byte {
	k := hmacSHA256([]byte("AWS4"+secret), []byte(date))
	k = hmacSHA256(k, []byte(region))
	k = hmacSHA256(k, []byte(service))
	return hmacSHA256(k, []byte("aws4_request"))
}

func credentialScope(date string) string {
	return strings.Join([]string{date, region, service, "aws4_request"}, "/")
}

// canonicalQuery renders query values sorted by key with strict URI escaping.
func canonicalQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, v := range values[k] {
			parts = append(parts, uriEscape(k)+"="+uriEscape(v))
		}
	}
	return strings.Join(parts, "&")
}

// uriEscape implements the AWS flavor of RFC 3986 escaping ('/' escaped, '~' not).
func uriEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			b.WriteString("%" + strings.ToUpper(hex.EncodeToString([]byte{c})))
		}
	}
	return b.String()
}

func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = uriEscape(seg)
	}
	return strings.Join(segments, "/")
}

type signInput struct {
	method      string
	host        string
	path        string
	query       url.Values
	payloadHash string
	now         time.Time
}

// signature computes the SigV4 signature for the canonical request assembled
// from in, signing only the host header.
func signature(secret string, in signInput) string {
	amzDate := in.now.UTC().Format("20060102T150405Z")
	date := in.now.UTC().Format("20060102")

	canonicalRequest := strings.Join([]string{
		in.method,
		escapePath(in.path),
		canonicalQuery(in.query),
		"host:" + in.host + "\n",
		"host",
		in.payloadHash,
	}, "\n")

	stringToSign := strings.Join([]string{
		algorithm,
		amzDate,
		credentialScope(date),
		hashHex([]byte(canonicalRequest)),
	}, "\n")

	return hex.EncodeToString(hmacSHA256(signingKey(secret, date), []byte(stringToSign)))
}
