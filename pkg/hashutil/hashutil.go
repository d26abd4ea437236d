package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

type HashAlgo string

const (
	HashAlgoSHA256 HashAlgo = "sha256"
	HashAlgoBLAKE3 HashAlgo = "blake3"
)

// ParseAlgo maps a configured algorithm name onto a HashAlgo.
func ParseAlgo(name string) (HashAlgo, error) {
	switch HashAlgo(name) {
	case HashAlgoSHA256, HashAlgoBLAKE3:
		return HashAlgo(name), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", name)
	}
}

// HashBytes returns the hash of bytes as a hex string using the specified algorithm.
// Supported algorithms: "sha256" and "blake3".
func HashBytes(data []byte, algo HashAlgo) (string, error) {
	switch algo {
	case HashAlgoSHA256:
		return hashBytesSha256(data), nil
	case HashAlgoBLAKE3:
		return hashBytesBlake3(data), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

// Tagged hashes s and prefixes the digest with the algorithm name, e.g. "blake3:af13...".
// The prefix keeps digests from different algorithms apart when they share a keyspace.
func Tagged(s string, algo HashAlgo) (string, error) {
	digest, err := HashBytes([]byte(s), algo)
	if err != nil {
		return "", err
	}
	return string(algo) + ":" + digest, nil
}

func hashBytesSha256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func hashBytesBlake3(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}
