package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/strandgate/helix/pkg/model"
)

// Seal compresses-plaintext-independent AES-256-GCM encryption: it
// generates a fresh nonce, encrypts plaintext under sessionKey, and
// returns a fully framed Block ready for the erasure layer. origLen is
// the caller-supplied length of plaintext before any upstream
// compression, recorded in the header for restore-side sanity checks.
func Seal(blockID uint64, origLen uint64, plaintext []byte, sessionKey [32]byte, globalSalt, blockSalt [16]byte) (model.Block, error) {
	block, err := aes.NewCipher(sessionKey[:])
	if err != nil {
		return model.Block{}, fmt.Errorf("helix: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return model.Block{}, fmt.Errorf("helix: new gcm: %w", err)
	}

	var nonce [12]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return model.Block{}, fmt.Errorf("%w: nonce read: %v", model.ErrIO, err)
	}

	ciphertext := gcm.Seal(nil, nonce[:], plaintext, nil)

	return model.Block{
		ID: blockID,
		Header: model.BlockHeader{
			OrigLen:    origLen,
			EncLen:     uint64(len(ciphertext)),
			GlobalSalt: globalSalt,
			BlockSalt:  blockSalt,
			Nonce:      nonce,
		},
		Ciphertext: ciphertext,
	}, nil
}

// Open inverts Seal: it decrypts b.Ciphertext under sessionKey using the
// nonce recorded in b.Header and verifies the GCM authentication tag. A
// tag mismatch (wrong passphrase, corrupted ciphertext Reed-Solomon
// couldn't repair, or a tampered block) surfaces as ErrAuthFailure.
func Open(b model.Block, sessionKey [32]byte) ([]byte, error) {
	block, err := aes.NewCipher(sessionKey[:])
	if err != nil {
		return nil, fmt.Errorf("helix: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("helix: new gcm: %w", err)
	}

	plaintext, err := gcm.Open(nil, b.Header.Nonce[:], b.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAuthFailure, err)
	}
	return plaintext, nil
}
