// Package crypto implements Helix's two-stage key derivation and
// AES-256-GCM block sealing (spec §4.1). A single passphrase-derived
// master key is expensive to compute by design; every block then derives
// its own disposable session key cheaply, so two blocks with identical
// plaintext never produce identical ciphertext.
package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// Argon2id parameters for master-key derivation: 16 MiB of memory, 3
// iterations, a single lane. Chosen to match the archive format this
// package was ported from; changing these parameters changes every
// derived key, so they are not exposed as archive options.
const (
	argonMemoryKiB  = 16 * 1024
	argonIterations = 3
	argonLanes      = 1
	keySize         = 32
)

// DeriveMasterKey runs Argon2id over passphrase, salted by globalSalt. It
// is intentionally slow: callers should run it exactly once per archive,
// not once per block.
func DeriveMasterKey(passphrase string, globalSalt [16]byte) [32]byte {
	out := argon2.IDKey([]byte(passphrase), globalSalt[:], argonIterations, argonMemoryKiB, argonLanes, keySize)
	var key [32]byte
	copy(key[:], out)
	return key
}

// DeriveSessionKey runs HKDF-SHA256 over masterKey, salted by blockSalt,
// with info binding the derived key to blockID so two blocks can never
// collide on session key even if their salts somehow did.
func DeriveSessionKey(masterKey [32]byte, blockSalt [16]byte, blockID uint64) [32]byte {
	info := make([]byte, len("helix/block")+8)
	n := copy(info, "helix/block")
	putBlockID(info[n:], blockID)

	reader := hkdf.New(sha256.New, masterKey[:], blockSalt[:], info)
	var key [32]byte
	if _, err := io.ReadFull(reader, key[:]); err != nil {
		// hkdf.New's reader only fails once its output is exhausted past
		// 255*hash-size bytes; a single 32-byte read never hits that.
		panic("helix: hkdf expansion failed: " + err.Error())
	}
	return key
}

func putBlockID(dst []byte, id uint64) {
	for i := 0; i < 8; i++ {
		dst[7-i] = byte(id >> (8 * i))
	}
}
