package km

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// hashKV hashes a key/value pair into the "{sha256(key)}_{sha512(value)}"
// form the web API expects.
func hashKV(key, value string) string {
	keySum := sha256.Sum256([]byte(key))
	valSum := sha512.Sum512([]byte(value))

	return hex.EncodeToString(keySum[:]) + "_" + hex.EncodeToString(valSum[:])
}

// requestHash computes the signed-request header value for a parameter
// map. The same canonicalization is used whether the parameters end up as
// a query string or a form body.
//
// Web sessions hash every pair sorted by key, fold the list through
// sha256, mix in a hash of the birthday cookie and its expiry, and run
// the concatenation through sha512. Mobile sessions fold the md5 hex of
// every value (secret included) through a single sha256, sorted by value.
func requestHash(cfg Config, params map[string]string) string {
	switch c := cfg.(type) {
	case *ConfigWeb:
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		hashed := make([]string, 0, len(keys))
		for _, k := range keys {
			hashed = append(hashed, hashKV(k, params[k]))
		}

		joinedSum := sha256.Sum256([]byte(strings.Join(hashed, ",")))
		birthExpire := hashKV(c.Birthday.Value, strconv.FormatInt(c.Birthday.Expires, 10))

		finalSum := sha512.Sum512([]byte(hex.EncodeToString(joinedSum[:]) + birthExpire))

		return hex.EncodeToString(finalSum[:])

	case *ConfigMobile:
		values := make([]string, 0, len(params)+1)
		values = append(values, c.UserSecret)
		for _, v := range params {
			values = append(values, v)
		}
		sort.Strings(values)

		hasher := sha256.New()
		for _, v := range values {
			sum := md5.Sum([]byte(v))
			hasher.Write([]byte(hex.EncodeToString(sum[:])))
		}

		return hex.EncodeToString(hasher.Sum(nil))

	default:
		panic(fmt.Sprintf("km: unknown config type %T", cfg))
	}
}
