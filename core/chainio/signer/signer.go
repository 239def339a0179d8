// Package signer is the signing side of a user operation: it turns the raw
// user operation hash into the 65 byte signature SimpleAccount verifies.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/AvaProtocol/userop-digest/pkg/erc4337/aaerr"
)

const (
	eip191Prefix = "\x19Ethereum Signed Message:\n"
)

// ParsePrivateKey reads a hex encoded secp256k1 key, with or without 0x.
func ParsePrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimPrefix(privateKeyHex, "0x"), "0X")
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, aaerr.New(aaerr.MalformedInput, "invalid private key", err)
	}
	return privateKey, nil
}

func prefixedHash(data []byte) common.Hash {
	prefix := []byte(eip191Prefix + fmt.Sprint(len(data)))
	return crypto.Keccak256Hash(prefix, data)
}

// Generate EIP191 signature
func SignMessage(key *ecdsa.PrivateKey, data []byte) ([]byte, error) {
	sig, err := crypto.Sign(prefixedHash(data).Bytes(), key)
	if err != nil {
		return nil, err
	}
	// https://stackoverflow.com/questions/69762108/implementing-ethereum-personal-sign-eip-191-from-go-ethereum-gives-different-s
	sig[crypto.RecoveryIDOffset] += 27

	return sig, nil
}

// SignUserOpHash signs the 32 byte user operation hash the way SimpleAccount
// v0.6 validates it: ECDSA over toEthSignedMessageHash(userOpHash).
func SignUserOpHash(key *ecdsa.PrivateKey, userOpHash common.Hash) ([]byte, error) {
	return SignMessage(key, userOpHash.Bytes())
}

// RecoverUserOpSigner returns the address that produced sig over userOpHash.
func RecoverUserOpSigner(userOpHash common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, aaerr.NewMalformedInputError("signature", fmt.Sprintf("must be %d bytes, got %d", crypto.SignatureLength, len(sig)))
	}

	normalized := common.CopyBytes(sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(prefixedHash(userOpHash.Bytes()).Bytes(), normalized)
	if err != nil {
		return common.Address{}, aaerr.New(aaerr.MalformedInput, "cannot recover signer", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
