package wallet

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/ripemd160"
)

const (
	// DefaultHDPath is the Terra BIP44 path (coin type 330).
	DefaultHDPath = "m/44'/330'/0'/0/0"
	// DefaultPrefix is the bech32 account prefix.
	DefaultPrefix = "terra"

	PubKeyType = "tendermint/PubKeySecp256k1"
)

var (
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrKeyClosed       = errors.New("signing key has been released")
)

// Key is a secp256k1 account key derived from a mnemonic.
type Key struct {
	priv    *ecdsa.PrivateKey
	pub     []byte
	address string
}

// FromMnemonic derives the account key at hdPath and its bech32 address.
func FromMnemonic(mnemonic, passphrase, hdPath, prefix string) (*Key, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	if hdPath == "" {
		hdPath = DefaultHDPath
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	indexes, err := ParseHDPath(hdPath)
	if err != nil {
		return nil, err
	}

	seed := bip39.NewSeed(mnemonic, passphrase)
	defer zero(seed)

	child, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	for _, index := range indexes {
		child, err = child.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", hdPath, err)
		}
	}

	ecKey, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	raw := ecKey.Serialize()
	defer zero(raw)

	priv, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("convert private key: %w", err)
	}

	pub := crypto.CompressPubkey(&priv.PublicKey)
	address, err := Bech32Address(prefix, pub)
	if err != nil {
		return nil, err
	}

	return &Key{priv: priv, pub: pub, address: address}, nil
}

// Bech32Address encodes ripemd160(sha256(pubkey)) with prefix.
func Bech32Address(prefix string, compressedPubKey []byte) (string, error) {
	sum := sha256.Sum256(compressedPubKey)
	hasher := ripemd160.New()
	hasher.Write(sum[:])

	conv, err := bech32.ConvertBits(hasher.Sum(nil), 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("convert address bits: %w", err)
	}
	address, err := bech32.Encode(prefix, conv)
	if err != nil {
		return "", fmt.Errorf("encode address: %w", err)
	}
	return address, nil
}

func (k *Key) Address() string {
	return k.address
}

// PubKey returns the amino-typed compressed public key.
func (k *Key) PubKey() (typ, value string) {
	return PubKeyType, base64.StdEncoding.EncodeToString(k.pub)
}

// Sign signs sha256(signBytes) and returns the 64-byte r||s signature.
func (k *Key) Sign(signBytes []byte) ([]byte, error) {
	if k == nil || k.priv == nil {
		return nil, ErrKeyClosed
	}
	hash := sha256.Sum256(signBytes)
	sig, err := crypto.Sign(hash[:], k.priv)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return sig[:64], nil
}

// Close wipes the private scalar. The key cannot sign afterwards.
func (k *Key) Close() {
	if k == nil || k.priv == nil {
		return
	}
	words := k.priv.D.Bits()
	for i := range words {
		words[i] = 0
	}
	k.priv = nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
